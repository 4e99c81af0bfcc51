package gateway

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/protocol"
)

// bareConn builds a Connection that never touches a real socket. The
// registry only uses the send channel and the done channel, so tests can
// drive both directly.
func bareConn(userID string) *Connection {
	c := &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	c.isAlive.Store(true)
	return c
}

func drain(c *Connection) []protocol.Frame {
	var frames []protocol.Frame
	for {
		select {
		case raw := <-c.send:
			var f protocol.Frame
			if err := json.Unmarshal(raw, &f); err == nil {
				frames = append(frames, f)
			}
		default:
			return frames
		}
	}
}

func TestRegistryRegisterAndSockets(t *testing.T) {
	r := NewRegistry()
	a1 := bareConn("a")
	a2 := bareConn("a")
	b := bareConn("b")

	r.Register(a1)
	r.Register(a2)
	r.Register(b)

	if got := len(r.Sockets("a")); got != 2 {
		t.Errorf("Sockets(a) = %d connections, want 2", got)
	}
	if got := len(r.Sockets("b")); got != 1 {
		t.Errorf("Sockets(b) = %d connections, want 1", got)
	}
}

func TestRegistrySocketsUnknownUserIsEmpty(t *testing.T) {
	r := NewRegistry()
	if got := r.Sockets("nobody"); len(got) != 0 {
		t.Errorf("Sockets(nobody) = %d connections, want 0", len(got))
	}
}

func TestRegistryUnregisterReportsLast(t *testing.T) {
	r := NewRegistry()
	a1 := bareConn("a")
	a2 := bareConn("a")
	r.Register(a1)
	r.Register(a2)

	if last := r.Unregister(a1); last {
		t.Error("Unregister(a1) reported last while a2 is still live")
	}
	if last := r.Unregister(a2); !last {
		t.Error("Unregister(a2) did not report last")
	}
	if got := len(r.Connections()); got != 0 {
		t.Errorf("Connections() = %d after full unregister, want 0", got)
	}
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := bareConn("a")
	r.Register(a)

	r.Unregister(a)
	if last := r.Unregister(a); last {
		t.Error("second Unregister reported last again")
	}
	if last := r.Unregister(bareConn("ghost")); last {
		t.Error("Unregister of never-registered connection reported last")
	}
}

func TestRegistryPrunesEmptySets(t *testing.T) {
	r := NewRegistry()
	a := bareConn("a")
	r.Register(a)
	r.Unregister(a)

	r.mu.RLock()
	_, exists := r.conns["a"]
	r.mu.RUnlock()
	if exists {
		t.Error("empty connection set was not pruned")
	}
}

func TestBroadcastFansOutToAllUserConnections(t *testing.T) {
	r := NewRegistry()
	a1 := bareConn("a")
	a2 := bareConn("a")
	b := bareConn("b")
	r.Register(a1)
	r.Register(a2)
	r.Register(b)

	r.Broadcast("a", protocol.NewEvent("chat", json.RawMessage(`{"text":"hi"}`)))

	for _, c := range []*Connection{a1, a2} {
		frames := drain(c)
		if len(frames) != 1 {
			t.Fatalf("connection got %d frames, want 1", len(frames))
		}
		if frames[0].Type != protocol.FrameEvent || frames[0].Source != "chat" {
			t.Errorf("frame = %+v, want chat event", frames[0])
		}
	}
	if frames := drain(b); len(frames) != 0 {
		t.Errorf("user b got %d frames, want 0", len(frames))
	}
}

func TestBroadcastSkipsClosedSiblings(t *testing.T) {
	r := NewRegistry()
	open := bareConn("a")
	closed := bareConn("a")
	close(closed.done)
	r.Register(open)
	r.Register(closed)

	r.Broadcast("a", protocol.ServerReady())

	if frames := drain(open); len(frames) != 1 {
		t.Errorf("open sibling got %d frames, want 1", len(frames))
	}
	if frames := drain(closed); len(frames) != 0 {
		t.Errorf("closed sibling got %d frames, want 0", len(frames))
	}
}

func TestBroadcastFullBufferDoesNotBlockSiblings(t *testing.T) {
	r := NewRegistry()
	stuck := bareConn("a")
	stuck.send = make(chan []byte) // unbuffered, nobody reading
	healthy := bareConn("a")
	r.Register(stuck)
	r.Register(healthy)

	r.Broadcast("a", protocol.ServerReady())

	if frames := drain(healthy); len(frames) != 1 {
		t.Errorf("healthy sibling got %d frames, want 1", len(frames))
	}
}
