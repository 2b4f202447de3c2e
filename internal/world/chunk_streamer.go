package world

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// GenerationJob asks the streamer for the rasters of one chunk.
type GenerationJob struct {
	Coord ChunkCoord
	// Seq identifies the dispatch; a result is accepted only while its Seq is still pending.
	Seq int64
}

// GenerationResult is handed back to the foreground once per job.
type GenerationResult struct {
	Coord ChunkCoord
	Seq   int64
	Data  *ChunkRasterData
	Err   error
}

// ChunkStreamer runs raster generation on a fixed set of worker goroutines.
// Jobs go in through Submit, results come out of Results.
type ChunkStreamer struct {
	jobs    chan GenerationJob
	results chan GenerationResult
	source  RasterSource
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewChunkStreamer starts workers goroutines (NumCPU when workers <= 0).
func NewChunkStreamer(source RasterSource, workers, queueSize int, log *slog.Logger) *ChunkStreamer {
	if workers <= 0 {
		workers = max(runtime.NumCPU(), 1)
	}
	queueSize = max(queueSize, 1)
	ctx, cancel := context.WithCancel(context.Background())

	cs := &ChunkStreamer{
		jobs:    make(chan GenerationJob, queueSize),
		results: make(chan GenerationResult, queueSize),
		source:  source,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	for range workers {
		cs.wg.Add(1)
		go cs.worker()
	}
	return cs
}

// Submit queues job without blocking. It returns false when the queue is full
// or the streamer is shut down.
func (cs *ChunkStreamer) Submit(job GenerationJob) bool {
	if cs.ctx.Err() != nil {
		return false
	}
	select {
	case cs.jobs <- job:
		return true
	default:
		return false
	}
}

// Results is the queue of finished jobs, drained by the foreground.
func (cs *ChunkStreamer) Results() <-chan GenerationResult {
	return cs.results
}

// QueueLength returns the number of jobs waiting for a worker.
func (cs *ChunkStreamer) QueueLength() int {
	return len(cs.jobs)
}

// Shutdown stops the workers. Jobs still queued are abandoned.
func (cs *ChunkStreamer) Shutdown() {
	cs.cancel()
	cs.wg.Wait()
}

func (cs *ChunkStreamer) worker() {
	defer cs.wg.Done()

	for {
		select {
		case job := <-cs.jobs:
			res := cs.run(job)
			select {
			case cs.results <- res:
			case <-cs.ctx.Done():
				return
			}
		case <-cs.ctx.Done():
			return
		}
	}
}

// run generates one chunk, turning a panicking source into a failed result.
func (cs *ChunkStreamer) run(job GenerationJob) (res GenerationResult) {
	res = GenerationResult{Coord: job.Coord, Seq: job.Seq}
	defer func() {
		if r := recover(); r != nil {
			cs.log.Error("raster generation panicked", "chunk", job.Coord.String(), "panic", r)
			res.Data = nil
			res.Err = fmt.Errorf("generate chunk %s: panic: %v", job.Coord, r)
		}
	}()

	data, err := cs.source.Rasters(cs.ctx, job.Coord)
	if err != nil {
		res.Err = fmt.Errorf("generate chunk %s: %w", job.Coord, err)
		return res
	}
	res.Data = data
	return res
}
