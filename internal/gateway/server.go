package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/auth"
	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/protocol"
	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/pubsub"
)

const routeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// TokenValidator is the external token-validation capability. The auth
// package's TokenService implements it.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Identity, error)
}

type closer interface {
	Close()
}

// Gateway wires the registry, router, liveness monitor and bus bridge
// together across each connection's lifecycle.
type Gateway struct {
	registry   *Registry
	router     *Router
	publisher  *pubsub.Publisher
	tokens     TokenValidator
	monitor    *Monitor
	subscriber closer
}

// New creates a Gateway. Targets are added on its Router before serving.
func New(tokens TokenValidator, publisher *pubsub.Publisher) *Gateway {
	registry := NewRegistry()
	return &Gateway{
		registry:  registry,
		router:    NewRouter(),
		publisher: publisher,
		tokens:    tokens,
		monitor:   NewMonitor(registry, pingInterval),
	}
}

// Registry exposes the connection registry, primarily so the bus
// subscriber can broadcast into it.
func (g *Gateway) Registry() *Registry { return g.registry }

// Router exposes the handler registry for target registration.
func (g *Gateway) Router() *Router { return g.router }

// BindSubscriber hands the Gateway the bus subscriber so Shutdown can
// close it in the right order.
func (g *Gateway) BindSubscriber(s closer) { g.subscriber = s }

// Start launches the liveness monitor.
func (g *Gateway) Start() {
	go g.monitor.Run()
}

// Shutdown tears the gateway down: liveness monitor first, then the bus
// subscriber, then the publisher, then any remaining sockets. This order
// keeps new broadcasts from firing into a server that is going away.
func (g *Gateway) Shutdown() {
	g.monitor.Stop()
	if g.subscriber != nil {
		g.subscriber.Close()
	}
	g.publisher.Close()
	for _, c := range g.registry.Connections() {
		c.Close()
	}
}

// HandleWebSocket authenticates and upgrades GET requests on the gateway
// endpoint. Authentication happens strictly before the upgrade: rejected
// attempts get a raw HTTP status and never see a WebSocket frame or a
// registry entry.
func (g *Gateway) HandleWebSocket(c echo.Context) error {
	token, err := auth.BearerToken(c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	identity, err := g.tokens.Validate(c.Request().Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingToken),
			errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrUnknownUser):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		default:
			slog.Error("token validation failed unexpectedly", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("upgrade error", "userID", identity.UserID, "error", err)
		return nil
	}

	conn := newConnection(ws, g, identity.UserID, identity.Username)
	conn.state.Store(stateAuthenticating)
	g.registry.Register(conn)
	conn.SendFrame(protocol.ServerReady())
	conn.state.Store(stateAuthenticated)

	slog.Info("client connected", "userID", conn.UserID, "username", conn.Username, "connID", conn.ID)

	go conn.writePump()
	go conn.readPump()
	return nil
}

// handleInbound validates and routes one client message. Failures become
// a single sanitized error frame on the originating connection; the
// connection itself stays open.
func (g *Gateway) handleInbound(c *Connection, raw []byte) {
	msg, err := protocol.ParseClientMessage(raw)
	if err != nil {
		slog.Info("client message rejected", "userID", c.UserID, "connID", c.ID, "error", err)
		c.SendFrame(protocol.ErrorFrame("server", protocol.Sanitize(err), nil))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
	defer cancel()

	if err := g.router.Route(ctx, c.UserID, msg); err != nil {
		slog.Error("routing failed", "userID", c.UserID, "target", msg.Target, "error", err)
		c.SendFrame(protocol.ErrorFrame("server", protocol.Sanitize(err), msg.ResponseMetadata()))
		return
	}

	c.SendFrame(protocol.Ack(msg.ResponseMetadata()))
}

// handleClose unregisters a closed connection and, when it was the user's
// final one, publishes the disconnect notice to the bus.
func (g *Gateway) handleClose(c *Connection) {
	last := g.registry.Unregister(c)
	slog.Info("client disconnected", "userID", c.UserID, "connID", c.ID, "last", last)
	if !last {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
	defer cancel()

	if err := g.publisher.Publish(ctx, pubsub.ChannelDisconnected, protocol.Outbound{UserID: c.UserID}); err != nil {
		slog.Error("publishing disconnect notice", "userID", c.UserID, "error", err)
	}
}
