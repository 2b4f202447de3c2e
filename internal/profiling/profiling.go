package profiling

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Profiler accumulates named durations for the current frame.
type Profiler struct {
	mu     sync.Mutex
	totals map[string]time.Duration
	calls  map[string]int
}

// New creates an empty profiler.
func New() *Profiler {
	return &Profiler{
		totals: make(map[string]time.Duration),
		calls:  make(map[string]int),
	}
}

var std = New()

// Default returns the process-wide profiler used by the package-level helpers.
func Default() *Profiler { return std }

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("world.Tick")()
func Track(name string) func() { return std.Track(name) }

// ResetFrame clears the per-frame totals of the default profiler.
func ResetFrame() { std.ResetFrame() }

// Snapshot copies the per-frame totals of the default profiler.
func Snapshot() map[string]time.Duration { return std.Snapshot() }

// TopN formats the n largest totals of the default profiler.
func TopN(n int) string { return std.TopN(n) }

// SumWithPrefix sums the totals of the default profiler whose name starts with prefix.
func SumWithPrefix(prefix string) time.Duration { return std.SumWithPrefix(prefix) }

// Track returns a stop function that records the elapsed time under name.
func (p *Profiler) Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.mu.Lock()
		p.totals[name] += d
		p.calls[name]++
		p.mu.Unlock()
	}
}

// ResetFrame clears the per-frame totals. Call at the start of each frame.
func (p *Profiler) ResetFrame() {
	p.mu.Lock()
	clear(p.totals)
	clear(p.calls)
	p.mu.Unlock()
}

// Snapshot returns a copy of the per-frame totals.
func (p *Profiler) Snapshot() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.totals)
}

// Calls returns how often name was tracked this frame.
func (p *Profiler) Calls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

// SumWithPrefix sums the totals whose name starts with prefix.
func (p *Profiler) SumWithPrefix(prefix string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum time.Duration
	for name, d := range p.totals {
		if strings.HasPrefix(name, prefix) {
			sum += d
		}
	}
	return sum
}

// TopN formats the n largest totals, e.g. "world.Tick:4.2ms, world.Build:2.1ms".
func (p *Profiler) TopN(n int) string {
	totals := p.Snapshot()
	names := slices.SortedFunc(maps.Keys(totals), func(a, b string) int {
		if totals[a] != totals[b] {
			if totals[a] > totals[b] {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	n = min(max(n, 0), len(names))

	parts := make([]string, 0, n)
	for _, name := range names[:n] {
		parts = append(parts, name+":"+formatMs(totals[name]))
	}
	return strings.Join(parts, ", ")
}

// formatMs renders d in milliseconds with one decimal, dropping ".0".
func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	s := strconv.FormatFloat(ms, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + "ms"
}
