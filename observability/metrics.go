package observability

import (
	"context"
	"sync"
	"sync/atomic"
)

// MetricsObserver counts events per type and level. Counters are atomic so
// the observer can be shared by every container in a process.
type MetricsObserver struct {
	mu       sync.RWMutex
	counts   map[EventType]*atomic.Int64
	errors   atomic.Int64
	warnings atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of a MetricsObserver.
type MetricsSnapshot struct {
	Events   map[EventType]int64 `json:"events"`
	Errors   int64               `json:"errors"`
	Warnings int64               `json:"warnings"`
}

// Total returns the number of events of all types.
func (s MetricsSnapshot) Total() int64 {
	var total int64
	for _, n := range s.Events {
		total += n
	}
	return total
}

// NewMetricsObserver creates an empty MetricsObserver.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{counts: make(map[EventType]*atomic.Int64)}
}

func (m *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	m.counter(event.Type).Add(1)

	switch {
	case event.Level >= LevelError:
		m.errors.Add(1)
	case event.Level >= LevelWarning:
		m.warnings.Add(1)
	}
}

// Count returns the number of events observed for t.
func (m *MetricsObserver) Count(t EventType) int64 {
	m.mu.RLock()
	c, ok := m.counts[t]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.Load()
}

// Snapshot returns a copy of all counters.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make(map[EventType]int64, len(m.counts))
	for t, c := range m.counts {
		events[t] = c.Load()
	}
	return MetricsSnapshot{
		Events:   events,
		Errors:   m.errors.Load(),
		Warnings: m.warnings.Load(),
	}
}

// Reset clears all counters.
func (m *MetricsObserver) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts = make(map[EventType]*atomic.Int64)
	m.errors.Store(0)
	m.warnings.Store(0)
}

func (m *MetricsObserver) counter(t EventType) *atomic.Int64 {
	m.mu.RLock()
	c, ok := m.counts[t]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counts[t]; ok {
		return c
	}
	c = new(atomic.Int64)
	m.counts[t] = c
	return c
}
