package world

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tileworld/internal/profiling"

	"github.com/brentp/intintmap"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrManagerClosed is returned by operations on a closed Manager.
var ErrManagerClosed = errors.New("world: manager closed")

// ObserverSource reports the world-space position the world streams around.
// ok is false while there is no observer; the manager then does nothing.
type ObserverSource interface {
	ObserverPosition() (pos mgl64.Vec2, ok bool)
}

// ObserverFunc adapts a function to ObserverSource.
type ObserverFunc func() (mgl64.Vec2, bool)

// ObserverPosition implements ObserverSource.
func (f ObserverFunc) ObserverPosition() (mgl64.Vec2, bool) { return f() }

// Config configures a Manager.
type Config struct {
	// Log receives lifecycle diagnostics. Defaults to slog.Default().
	Log      *slog.Logger
	Observer ObserverSource
	Settings Settings
	// Source produces chunk rasters. Defaults to Settings.
	Source     RasterSource
	Classifier *Classifier
	// Surfaces creates chunk surfaces. Nil keeps tile data only.
	Surfaces SurfaceFactory

	ViewDistance   int
	UnloadDistance int

	// Workers <= 0 uses one worker per CPU.
	Workers int
	// QueueSize bounds both the job and the result queue.
	QueueSize int
	// MaxResultsPerUpdate bounds how many results one Update applies. <= 0 means no bound.
	MaxResultsPerUpdate int
	// RetainRasters keeps the raw noise on each record for inspection.
	RetainRasters bool

	Metrics *Metrics
}

func (conf Config) withDefaults() Config {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Observer == nil {
		conf.Observer = ObserverFunc(func() (mgl64.Vec2, bool) { return mgl64.Vec2{}, false })
	}
	if conf.Settings.ChunkSize == 0 {
		conf.Settings.ChunkSize = DefaultChunkSize
	}
	conf.Settings = conf.Settings.Clamped()
	if conf.Source == nil {
		conf.Source = conf.Settings
	}
	if conf.Classifier == nil {
		conf.Classifier = &Classifier{}
	}
	if conf.ViewDistance < 0 {
		conf.Log.Warn("view distance clamped", "configured", conf.ViewDistance, "used", 0)
		conf.ViewDistance = 0
	}
	if conf.UnloadDistance <= conf.ViewDistance {
		conf.Log.Warn("unload distance must exceed view distance",
			"view_distance", conf.ViewDistance,
			"configured", conf.UnloadDistance,
			"used", conf.ViewDistance+1,
		)
		conf.UnloadDistance = conf.ViewDistance + 1
	}
	if conf.QueueSize <= 0 {
		side := 2*conf.ViewDistance + 1
		conf.QueueSize = 4 * side * side
	}
	if conf.Metrics == nil {
		conf.Metrics = NewMetrics()
	}
	return conf
}

// Manager keeps the chunks around an observer generated, cached or destroyed.
// All methods must be called from one goroutine.
type Manager struct {
	conf     Config
	log      *slog.Logger
	store    *ChunkStore
	builder  *Builder
	streamer *ChunkStreamer

	// pending maps packed coordinates to the Seq of their in-flight job.
	pending *intintmap.Map
	backlog []GenerationJob
	seq     int64

	center    ChunkCoord
	hasCenter bool

	destroyScratch []ChunkCoord
	lastBacklogLog time.Time
	closed         bool
}

// NewManager creates a manager and starts its generation workers.
func NewManager(conf Config) *Manager {
	conf = conf.withDefaults()
	log := conf.Log.With("component", "world")
	return &Manager{
		conf:     conf,
		log:      log,
		store:    NewChunkStore(),
		builder:  NewBuilder(conf.Classifier, conf.Settings.ChunkSize, conf.Surfaces),
		streamer: NewChunkStreamer(conf.Source, conf.Workers, conf.QueueSize, log),
		pending:  intintmap.New(conf.QueueSize, 0.6),
	}
}

// Store returns the tracked chunks.
func (m *Manager) Store() ChunkQuery {
	return m.store
}

// ViewDistance returns the effective view distance after clamping.
func (m *Manager) ViewDistance() int { return m.conf.ViewDistance }

// UnloadDistance returns the effective unload distance after clamping.
func (m *Manager) UnloadDistance() int { return m.conf.UnloadDistance }

// ChunkSize returns the chunk edge length in tiles.
func (m *Manager) ChunkSize() int { return m.conf.Settings.ChunkSize }

// Center returns the last observer chunk a tick ran for.
func (m *Manager) Center() (ChunkCoord, bool) {
	return m.center, m.hasCenter
}

// Pending returns the number of coordinates with a job in flight or backlogged.
func (m *Manager) Pending() int {
	return m.pending.Size()
}

// IsPending reports whether coord has a job in flight or backlogged.
func (m *Manager) IsPending(coord ChunkCoord) bool {
	_, ok := m.pending.Get(coord.Pack())
	return ok
}

// Stats returns the lifecycle counters together with current gauges.
func (m *Manager) Stats() Stats {
	s := m.conf.Metrics.Snapshot()
	s.Tracked = m.store.Len()
	s.Active = m.store.CountState(StateActive)
	s.Cached = m.store.CountState(StateCached)
	s.Pending = m.pending.Size()
	s.Queued = m.streamer.QueueLength()
	return s
}

// Update runs one foreground frame: tick if the observer entered a new chunk,
// resubmit backlogged jobs, then apply finished results.
func (m *Manager) Update() error {
	if m.closed {
		return ErrManagerClosed
	}
	pos, ok := m.conf.Observer.ObserverPosition()
	if !ok {
		return nil
	}
	center := ChunkAt(pos, m.conf.Settings.ChunkSize)
	if !m.hasCenter || center != m.center {
		m.Tick(center)
	}
	m.retryBacklog()
	m.Drain(m.conf.MaxResultsPerUpdate)
	return nil
}

// Tick applies lifecycle transitions for an observer in center and dispatches
// generation for missing chunks within view distance. Calling it again with
// the same center changes nothing.
func (m *Manager) Tick(center ChunkCoord) {
	if m.closed {
		return
	}
	defer profiling.Track("world.Tick")()

	if m.hasCenter && center == m.center {
		return
	}
	m.center = center
	m.hasCenter = true
	m.conf.Metrics.incTicks()

	view, unload := m.conf.ViewDistance, m.conf.UnloadDistance

	m.destroyScratch = m.destroyScratch[:0]
	m.store.each(func(rec *ChunkRecord) {
		switch d := rec.Coord.Chebyshev(center); {
		case d > unload:
			rec.State = StatePendingDestroy
			m.destroyScratch = append(m.destroyScratch, rec.Coord)
		case d > view:
			m.builder.Disable(rec)
		default:
			m.builder.Enable(rec)
		}
	})
	for _, coord := range m.destroyScratch {
		if rec, ok := m.store.remove(coord); ok {
			m.builder.Destroy(rec)
		}
	}
	m.conf.Metrics.addDestroyed(len(m.destroyScratch))

	for dy := -view; dy <= view; dy++ {
		for dx := -view; dx <= view; dx++ {
			coord := ChunkCoord{X: center.X + dx, Y: center.Y + dy}
			if m.store.Has(coord) || m.IsPending(coord) {
				continue
			}
			m.dispatch(coord)
		}
	}
}

func (m *Manager) dispatch(coord ChunkCoord) {
	m.seq++
	job := GenerationJob{Coord: coord, Seq: m.seq}
	m.pending.Put(coord.Pack(), job.Seq)
	m.conf.Metrics.incDispatched()

	if !m.streamer.Submit(job) {
		m.backlog = append(m.backlog, job)
		m.conf.Metrics.incBacklogged()
		m.warnBackpressure()
	}
}

// retryBacklog resubmits jobs that did not fit in the queue, dropping those
// that left the unload radius.
func (m *Manager) retryBacklog() {
	if len(m.backlog) == 0 {
		return
	}
	kept := m.backlog[:0]
	for i, job := range m.backlog {
		if m.hasCenter && job.Coord.Chebyshev(m.center) > m.conf.UnloadDistance {
			m.pending.Del(job.Coord.Pack())
			m.conf.Metrics.incStale()
			continue
		}
		if !m.streamer.Submit(job) {
			kept = append(kept, m.backlog[i:]...)
			break
		}
	}
	clear(m.backlog[len(kept):])
	m.backlog = kept
}

func (m *Manager) warnBackpressure() {
	now := time.Now()
	if now.Sub(m.lastBacklogLog) < time.Second {
		return
	}
	m.lastBacklogLog = now
	m.log.Warn("generation queue saturated, backlogging jobs",
		"backlog", len(m.backlog),
		"queued", m.streamer.QueueLength(),
		"queue_size", m.conf.QueueSize,
	)
}

// Drain applies up to limit finished results without blocking (limit <= 0: all
// currently queued). It returns how many results were consumed.
func (m *Manager) Drain(limit int) int {
	if m.closed {
		return 0
	}
	defer profiling.Track("world.Drain")()

	n := 0
	for limit <= 0 || n < limit {
		select {
		case res := <-m.streamer.Results():
			m.apply(res)
			n++
		default:
			return n
		}
	}
	return n
}

// Flush blocks until every pending job has been delivered and applied.
func (m *Manager) Flush(ctx context.Context) error {
	if m.closed {
		return ErrManagerClosed
	}
	for {
		m.retryBacklog()
		if m.pending.Size() == 0 {
			return nil
		}
		select {
		case res := <-m.streamer.Results():
			m.apply(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// apply consumes one result on the foreground.
func (m *Manager) apply(res GenerationResult) {
	key := res.Coord.Pack()
	seq, ok := m.pending.Get(key)
	if !ok || seq != res.Seq {
		m.conf.Metrics.incDuplicates()
		m.log.Debug("dropping result without a matching pending job", "chunk", res.Coord.String(), "seq", res.Seq)
		return
	}
	m.pending.Del(key)

	if res.Err != nil {
		m.conf.Metrics.incFailed()
		m.log.Error("chunk generation failed", "chunk", res.Coord.String(), "err", res.Err)
		return
	}

	d := res.Coord.Chebyshev(m.center)
	if d > m.conf.UnloadDistance {
		m.conf.Metrics.incStale()
		m.log.Debug("discarding stale chunk", "chunk", res.Coord.String(), "distance", d)
		return
	}
	if m.store.Has(res.Coord) {
		m.conf.Metrics.incDuplicates()
		return
	}

	rec := m.builder.Build(res.Coord, res.Data)
	if m.conf.RetainRasters {
		rec.Rasters = res.Data
	}
	m.store.insert(rec)
	if d > m.conf.ViewDistance {
		m.builder.Disable(rec)
	}
	m.conf.Metrics.incBuilt()
}

// Inspect returns the noise rasters of coord. Retained rasters are returned
// when present, otherwise they are recomputed from the settings.
func (m *Manager) Inspect(coord ChunkCoord) *ChunkRasterData {
	if rec, ok := m.store.Lookup(coord); ok && rec.Rasters != nil {
		return rec.Rasters
	}
	return m.conf.Settings.RastersSync(coord)
}

// Close stops the workers and releases every tracked chunk.
func (m *Manager) Close() error {
	if m.closed {
		return ErrManagerClosed
	}
	m.closed = true
	m.streamer.Shutdown()

	for _, coord := range m.store.Coords() {
		if rec, ok := m.store.remove(coord); ok {
			m.builder.Destroy(rec)
		}
	}
	m.backlog = nil
	m.pending = intintmap.New(1, 0.6)
	return nil
}
