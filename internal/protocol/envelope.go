package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is the {userId, message} wrapper used on the Redis bus for
// backend-to-gateway traffic.
type Envelope struct {
	UserID  string          `json:"userId"`
	Message EnvelopeMessage `json:"message"`
}

// EnvelopeMessage is the inner message of an inbound envelope. Type
// "event" carries Payload; type "update" carries Status and Metadata.
type EnvelopeMessage struct {
	Type     string          `json:"type"`
	Source   string          `json:"source"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Status   *Status         `json:"status,omitempty"`
	Metadata *Metadata       `json:"metadata,omitempty"`
}

// Outbound is the envelope published by the gateway for routed client
// messages. Lifecycle notices (client.disconnected) omit Message.
type Outbound struct {
	UserID  string           `json:"userId"`
	Message *OutboundMessage `json:"message,omitempty"`
}

// OutboundMessage wraps the opaque client payload forwarded to a backend.
type OutboundMessage struct {
	Payload json.RawMessage `json:"payload"`
}

// ParseEnvelope parses and validates an inbound bus message.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, InvalidMessageFormat("Invalid JSON in bus envelope.")
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Envelope) validate() error {
	if e.UserID == "" {
		return InvalidMessageFormat(`Missing required field "userId" in envelope.`)
	}
	if e.Message.Source == "" {
		return InvalidMessageFormat(`Missing required field "source" in envelope message.`)
	}

	switch e.Message.Type {
	case FrameEvent:
		if !isJSONObject(e.Message.Payload) {
			return InvalidMessageFormat(`Event envelope missing "payload" object.`)
		}
	case FrameUpdate:
		if e.Message.Status == nil {
			return InvalidMessageFormat(`Update envelope missing "status".`)
		}
		if e.Message.Metadata == nil {
			return InvalidMessageFormat(`Update envelope missing "metadata".`)
		}
	default:
		return InvalidMessageFormat(fmt.Sprintf("Unknown envelope type %q.", e.Message.Type))
	}
	return nil
}

// Frame converts a validated envelope into the protocol frame delivered
// to the target user's connections.
func (e *Envelope) Frame() *Frame {
	if e.Message.Type == FrameEvent {
		return NewEvent(e.Message.Source, e.Message.Payload)
	}
	return NewUpdate(e.Message.Source, *e.Message.Status, e.Message.Metadata)
}
