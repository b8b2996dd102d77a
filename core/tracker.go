package core

import (
	"log/slog"
	"maps"
	"sync"
)

// Tracker is the platform observer every started delegate registers. It
// logs each event and remembers the latest one per component.
type Tracker struct {
	logger *slog.Logger

	mu   sync.RWMutex
	last map[string]Event
}

func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{logger: logger, last: map[string]Event{}}
}

func (t *Tracker) Observe(e Event) {
	t.logger.Debug("lifecycle event", "component", e.Component, "kind", e.Kind.String())
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[e.Component] = e
}

// Snapshot returns the latest event per component.
func (t *Tracker) Snapshot() map[string]Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.last)
}
