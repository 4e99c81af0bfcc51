package protocol

import "encoding/json"

// Frame types on the client-bound wire.
const (
	FrameEvent  = "event"
	FrameUpdate = "update"
)

// Severity values carried by an update's status.
const (
	SeverityOK    = "ok"
	SeverityError = "error"
)

// Status describes the result of a request or a server-initiated notice.
type Status struct {
	Code     int    `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Metadata correlates a frame with the request that caused it.
type Metadata struct {
	ServerSideReqID string `json:"serverSideReqId,omitempty"`
	ClientSideReqID string `json:"clientSideReqId,omitempty"`
}

// Frame is a protocol message bound for a WebSocket client. It is a tagged
// union: type "event" carries Payload, type "update" carries Status and
// Metadata.
type Frame struct {
	Type     string          `json:"type"`
	Source   string          `json:"source"`
	Status   *Status         `json:"status,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Metadata *Metadata       `json:"metadata,omitempty"`
}

// Serialize renders the frame as a JSON text frame.
func (f *Frame) Serialize() ([]byte, error) {
	return json.Marshal(f)
}

// NewEvent builds an event frame carrying backend state.
func NewEvent(source string, payload json.RawMessage) *Frame {
	return &Frame{Type: FrameEvent, Source: source, Payload: payload}
}

// NewUpdate builds an update frame carrying a status and optional metadata.
func NewUpdate(source string, status Status, metadata *Metadata) *Frame {
	return &Frame{Type: FrameUpdate, Source: source, Status: &status, Metadata: metadata}
}

// ServerReady is the greeting sent immediately after a successful upgrade.
func ServerReady() *Frame {
	return NewUpdate("server", Status{
		Code:     CodeServerReady,
		Severity: SeverityOK,
		Message:  "Server is ready to receive messages.",
	}, nil)
}

// Ack acknowledges that a client message was forwarded to its target.
func Ack(metadata *Metadata) *Frame {
	return NewUpdate("server", Status{
		Code:     CodeReceived,
		Severity: SeverityOK,
		Message:  "Message forwarded.",
	}, metadata)
}

// ErrorFrame converts a client-safe error into an update frame.
func ErrorFrame(source string, err *AppError, metadata *Metadata) *Frame {
	return NewUpdate(source, Status{
		Code:     err.Code,
		Severity: SeverityError,
		Message:  err.Message,
	}, metadata)
}
