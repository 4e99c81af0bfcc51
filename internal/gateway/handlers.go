package gateway

import (
	"context"
	"encoding/json"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/protocol"
	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/pubsub"
)

// Forward returns a handler that republishes the client's payload to a
// backend channel as a {userId, message:{payload}} envelope. The payload
// is opaque to the gateway.
func Forward(pub *pubsub.Publisher, channel string) Handler {
	return HandlerFunc(func(ctx context.Context, userID string, msg *protocol.ClientMessage) error {
		return pub.Publish(ctx, channel, protocol.Outbound{
			UserID:  userID,
			Message: &protocol.OutboundMessage{Payload: msg.Payload},
		})
	})
}

// System returns a handler that answers liveness probes locally with a
// pong event on all of the user's connections, never touching the bus.
// Local replies are a valid target resolution like any other.
func System(registry *Registry) Handler {
	pong, _ := json.Marshal(map[string]string{"message": "pong"})
	return HandlerFunc(func(ctx context.Context, userID string, msg *protocol.ClientMessage) error {
		registry.Broadcast(userID, protocol.NewEvent("system", pong))
		return nil
	})
}
