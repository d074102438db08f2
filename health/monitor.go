package health

import (
	"maps"
	"slices"
	"sync"
	"time"
)

type tracked struct {
	status Status
	since  time.Time // when status.Status last changed
}

// Monitor keeps the latest status of each component and when that status last
// changed. It is safe for concurrent use.
type Monitor struct {
	mu      sync.RWMutex
	entries map[string]tracked
}

func NewMonitor() *Monitor {
	return &Monitor{entries: make(map[string]tracked)}
}

// Update stores status under name and reports whether the health state
// (healthy, degraded, unhealthy) differs from the previous one. The first
// update for a name only counts as a change when it is not healthy.
func (m *Monitor) Update(name string, status Status) bool {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, seen := m.entries[name]
	changed := (seen && prev.status.Status != status.Status) || (!seen && !status.IsHealthy())

	entry := tracked{status: status, since: prev.since}
	if !seen || prev.status.Status != status.Status {
		entry.since = status.Timestamp
	}
	m.entries[name] = entry
	return changed
}

func (m *Monitor) UpdateHealthy(name, message string) bool {
	return m.Update(name, NewHealthy(name, message))
}

func (m *Monitor) UpdateUnhealthy(name, message string) bool {
	return m.Update(name, NewUnhealthy(name, message))
}

func (m *Monitor) UpdateDegraded(name, message string) bool {
	return m.Update(name, NewDegraded(name, message))
}

// Get returns the latest status of name and when its state last changed.
func (m *Monitor) Get(name string) (Status, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[name]
	return entry.status, entry.since, ok
}

func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
}

// AggregateHealth folds all statuses, ordered by component name.
func (m *Monitor) AggregateHealth(systemName string) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subStatuses := make([]Status, 0, len(m.entries))
	for _, name := range slices.Sorted(maps.Keys(m.entries)) {
		subStatuses = append(subStatuses, m.entries[name].status)
	}
	return Aggregate(systemName, subStatuses)
}
