package gateway

import (
	"context"
	"fmt"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/protocol"
)

// Handler consumes a validated client message addressed to its target.
// Handlers are stateless pass-throughs; errors propagate to the caller,
// which sanitizes them into an error frame for the originating connection.
type Handler interface {
	Handle(ctx context.Context, userID string, msg *protocol.ClientMessage) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, userID string, msg *protocol.ClientMessage) error

func (f HandlerFunc) Handle(ctx context.Context, userID string, msg *protocol.ClientMessage) error {
	return f(ctx, userID, msg)
}

// Router dispatches client messages to the handler registered for their
// target. The handler set is fixed at startup; new targets are added by
// registering, never by touching the dispatch logic.
type Router struct {
	handlers map[string]Handler
}

// NewRouter creates a Router with no targets registered.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Register binds a target to a handler, replacing any previous binding.
func (r *Router) Register(target string, h Handler) {
	r.handlers[target] = h
}

// Route invokes the handler for the message's target. An unknown target
// yields an InvalidTarget error without publishing anything.
func (r *Router) Route(ctx context.Context, userID string, msg *protocol.ClientMessage) error {
	h, ok := r.handlers[msg.Target]
	if !ok {
		return protocol.InvalidTarget(fmt.Sprintf("Target %q not found.", msg.Target))
	}
	return h.Handle(ctx, userID, msg)
}
