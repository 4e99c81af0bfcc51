package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// ClientMessage is an inbound message from a WebSocket client.
type ClientMessage struct {
	Target   string          `json:"target"`
	Payload  json.RawMessage `json:"payload"`
	Metadata ClientMetadata  `json:"metadata"`
}

// ClientMetadata carries the client's correlation id plus the gateway's
// own, assigned during parsing and never trusted from the wire.
type ClientMetadata struct {
	UserReqID       string `json:"userReqId"`
	ServerSideReqID string `json:"serverSideReqId,omitempty"`
}

// ResponseMetadata builds the metadata echoed back in ack and error frames.
func (m *ClientMessage) ResponseMetadata() *Metadata {
	return &Metadata{
		ServerSideReqID: m.Metadata.ServerSideReqID,
		ClientSideReqID: m.Metadata.UserReqID,
	}
}

// ParseClientMessage parses and structurally validates a raw client frame.
// On success the message carries a freshly assigned serverSideReqId; any
// value the client supplied for it is discarded.
func ParseClientMessage(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, InvalidMessageFormat("Invalid JSON format in the request.")
	}
	if msg.Target == "" {
		return nil, InvalidMessageFormat(`Missing required field "target" in message.`)
	}
	if !isJSONObject(msg.Payload) {
		return nil, InvalidMessageFormat(`Field "payload" in message is not an object.`)
	}
	if msg.Metadata.UserReqID == "" {
		return nil, InvalidMessageFormat(`Missing required field "metadata.userReqId" in message.`)
	}

	msg.Metadata.ServerSideReqID = uuid.NewString()
	return &msg, nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
