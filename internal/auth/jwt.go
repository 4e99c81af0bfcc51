package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/database"
)

// Token validation failure reasons. All of these map to an HTTP 401 at
// the upgrade boundary; any other error is an internal failure (500).
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnknownUser  = errors.New("token references unknown user")
)

// Identity is the validated principal attached to a connection.
type Identity struct {
	UserID   string
	Username string
}

// Claims defines the JWT payload issued by the HTTP auth gateway.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService validates bearer tokens against the shared HMAC secret and
// the user store. It can also mint tokens, which sibling services and
// tests use; the WS gateway itself only validates.
type TokenService struct {
	secret []byte
	expiry time.Duration
	users  database.UserLookup
}

// NewTokenService creates a TokenService with the given HMAC secret.
func NewTokenService(secret string, users database.UserLookup) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: 15 * time.Minute,
		users:  users,
	}
}

// Mint creates a signed JWT for the given user.
func (ts *TokenService) Mint(userID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate checks a bearer token end to end: signature and expiry, claim
// shape, user existence, and username match against the store. It returns
// the identity on success and a typed reason on rejection.
func (ts *TokenService) Validate(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.Username == "" || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	user, err := ts.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("looking up user %d: %w", claims.UserID, err)
	}
	if user == nil {
		return nil, ErrUnknownUser
	}
	if user.Username != claims.Username {
		return nil, ErrUnknownUser
	}

	return &Identity{
		UserID:   strconv.FormatInt(user.ID, 10),
		Username: user.Username,
	}, nil
}
