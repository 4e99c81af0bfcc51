package gateway

import (
	"log/slog"
	"sync"
	"time"
)

// Monitor runs the periodic liveness sweep. A connection that has not
// answered the previous ping by the next tick is considered dead and its
// transport is terminated; the read pump then unregisters it. This is the
// only mechanism that reclaims half-open TCP sessions.
type Monitor struct {
	registry *Registry
	interval time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

// NewMonitor creates a Monitor sweeping at the given interval.
func NewMonitor(registry *Registry, interval time.Duration) *Monitor {
	return &Monitor{
		registry: registry,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Run sweeps until Stop is called. Call it on its own goroutine.
func (m *Monitor) Run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

func (m *Monitor) sweep() {
	for _, c := range m.registry.Connections() {
		if !c.isAlive.Load() {
			slog.Warn("connection failed liveness check, terminating", "userID", c.UserID, "connID", c.ID)
			c.Close()
			continue
		}
		c.isAlive.Store(false)
		if err := c.ping(); err != nil {
			slog.Debug("ping failed", "userID", c.UserID, "connID", c.ID, "error", err)
		}
	}
}

// Stop cancels the sweep. Idempotent.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}
