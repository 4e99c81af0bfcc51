package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsPair opens a real client/server WebSocket pair over httptest.
func wsPair(t *testing.T) (client, server *websocket.Conn) {
	t.Helper()

	serverCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverCh <- ws
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	server = <-serverCh
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestMonitorTerminatesUnresponsiveConnection(t *testing.T) {
	_, server := wsPair(t) // client never reads, so it never pongs

	registry := NewRegistry()
	c := newConnection(server, nil, "1", "Alice")
	registry.Register(c)

	monitor := NewMonitor(registry, 50*time.Millisecond)
	go monitor.Run()
	t.Cleanup(monitor.Stop)

	if !waitFor(t, 2*time.Second, c.closed) {
		t.Fatal("unresponsive connection was not terminated within two intervals")
	}
}

func TestMonitorKeepsResponsiveConnection(t *testing.T) {
	client, server := wsPair(t)

	registry := NewRegistry()
	c := newConnection(server, nil, "1", "Alice")
	registry.Register(c)

	// The client answers pings while reading; the server side needs a
	// reader for its pong handler to fire.
	server.SetPongHandler(func(string) error {
		c.isAlive.Store(true)
		return nil
	})
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		for {
			if _, _, err := server.ReadMessage(); err != nil {
				return
			}
		}
	}()

	monitor := NewMonitor(registry, 50*time.Millisecond)
	go monitor.Run()
	t.Cleanup(monitor.Stop)

	time.Sleep(300 * time.Millisecond)
	if c.closed() {
		t.Fatal("responsive connection was terminated by the sweep")
	}
}
