package world

import (
	"sync"
)

// Stats is a point-in-time copy of the lifecycle counters.
type Stats struct {
	Ticks      uint64
	Dispatched uint64
	Backlogged uint64
	Built      uint64
	Stale      uint64
	Duplicates uint64
	Failed     uint64
	Destroyed  uint64

	Tracked int
	Active  int
	Cached  int
	Pending int
	// Queued counts jobs submitted to the workers but not yet picked up.
	Queued int
}

// Metrics collects lifecycle counters. A nil *Metrics discards everything.
type Metrics struct {
	mu sync.Mutex
	s  Stats
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) add(field func(*Stats) *uint64, n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.mu.Lock()
	*field(&m.s) += n
	m.mu.Unlock()
}

func (m *Metrics) incTicks()      { m.add(func(s *Stats) *uint64 { return &s.Ticks }, 1) }
func (m *Metrics) incDispatched() { m.add(func(s *Stats) *uint64 { return &s.Dispatched }, 1) }
func (m *Metrics) incBacklogged() { m.add(func(s *Stats) *uint64 { return &s.Backlogged }, 1) }
func (m *Metrics) incBuilt()      { m.add(func(s *Stats) *uint64 { return &s.Built }, 1) }
func (m *Metrics) incStale()      { m.add(func(s *Stats) *uint64 { return &s.Stale }, 1) }
func (m *Metrics) incDuplicates() { m.add(func(s *Stats) *uint64 { return &s.Duplicates }, 1) }
func (m *Metrics) incFailed()     { m.add(func(s *Stats) *uint64 { return &s.Failed }, 1) }

func (m *Metrics) addDestroyed(n int) {
	m.add(func(s *Stats) *uint64 { return &s.Destroyed }, uint64(max(n, 0)))
}

// Snapshot returns a copy of the counters.
func (m *Metrics) Snapshot() Stats {
	if m == nil {
		return Stats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}
