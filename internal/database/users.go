package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is the slice of the externally-owned users table the gateway needs
// for token validation.
type User struct {
	ID       int64
	Username string
}

// UserLookup resolves user identities referenced by bearer tokens. The
// user store itself belongs to the HTTP auth gateway; this service only
// reads it.
type UserLookup interface {
	// GetByID returns the user, or nil when no such user exists.
	GetByID(ctx context.Context, id int64) (*User, error)
}

type userLookup struct {
	pool *pgxpool.Pool
}

// NewUserLookup creates a Postgres-backed UserLookup.
func NewUserLookup(pool *pgxpool.Pool) UserLookup {
	return &userLookup{pool: pool}
}

func (r *userLookup) GetByID(ctx context.Context, id int64) (*User, error) {
	u := &User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, username FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}
