// Command worldgen streams the world headlessly around an observer walking a
// straight line and logs the lifecycle counters.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"tileworld/internal/config"
	"tileworld/internal/logging"
	"tileworld/internal/profiling"
	"tileworld/internal/world"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xlab/closer"
	"golang.org/x/time/rate"
)

type options struct {
	worldFile string
	steps     int
	rate      float64
	speed     float64
	heading   float64
	settle    time.Duration
}

func main() {
	var opt options
	flag.StringVar(&opt.worldFile, "world", "", "world definition (TOML); built-in when empty")
	flag.IntVar(&opt.steps, "steps", 600, "number of observer steps")
	flag.Float64Var(&opt.rate, "rate", 60, "steps per second")
	flag.Float64Var(&opt.speed, "speed", 8, "tiles moved per step")
	flag.Float64Var(&opt.heading, "heading", 30, "walking direction in degrees, counter-clockwise from +x")
	flag.DurationVar(&opt.settle, "settle", 30*time.Second, "how long to wait for in-flight chunks at the end")
	flag.Parse()

	conf, err := config.Load(opt.worldFile, slog.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, "worldgen:", err)
		os.Exit(1)
	}
	log := logging.Init(conf.Logging.Level, conf.Logging.Format)

	layer := world.NewMemoryLayer()
	var pos mgl64.Vec2
	observer := world.ObserverFunc(func() (mgl64.Vec2, bool) { return pos, true })

	mc, err := conf.ManagerConfig(log, observer, layer)
	if err != nil {
		log.Error("invalid world definition", "err", err)
		os.Exit(1)
	}
	mgr := world.NewManager(mc)
	defaultBiome := "none"
	if b := mc.Classifier.Default(); b != nil {
		defaultBiome = b.Name
	}
	log.Info("world ready",
		"seed", conf.Settings.Seed,
		"chunk_size", conf.Settings.ChunkSize,
		"view_distance", mc.ViewDistance,
		"biome_rules", len(mc.Classifier.Rules()),
		"default_biome", defaultBiome,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
		report(log, mgr, layer)
		_ = mgr.Close()
	})

	go func() {
		err := walk(ctx, opt, mgr, &pos, log)
		close(done)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("walk failed", "err", err)
			closer.Exit(closer.ExitCodeErr)
			return
		}
		closer.Close()
	}()
	closer.Hold()
}

// walk moves the observer opt.steps times, updating the manager after each step.
func walk(ctx context.Context, opt options, mgr *world.Manager, pos *mgl64.Vec2, log *slog.Logger) error {
	limiter := rate.NewLimiter(rate.Limit(max(opt.rate, 0.1)), 1)
	rad := opt.heading * math.Pi / 180
	step := mgl64.Vec2{math.Cos(rad), math.Sin(rad)}.Mul(opt.speed)

	start := time.Now()
	lastReport := start
	for i := range opt.steps {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		profiling.ResetFrame()
		if err := mgr.Update(); err != nil {
			return err
		}
		*pos = pos.Add(step)

		if time.Since(lastReport) >= time.Second {
			center, _ := mgr.Center()
			s := mgr.Stats()
			log.Info("walking",
				"step", i,
				"chunk", center.String(),
				"active", s.Active,
				"cached", s.Cached,
				"pending", s.Pending,
				"queued", s.Queued,
				"frame", profiling.TopN(3),
			)
			lastReport = time.Now()
		}
	}

	settle, cancel := context.WithTimeout(ctx, opt.settle)
	defer cancel()
	if err := mgr.Flush(settle); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	log.Info("walk finished", "steps", opt.steps, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func report(log *slog.Logger, mgr *world.Manager, layer *world.MemoryLayer) {
	s := mgr.Stats()
	created, released := layer.Counts()
	log.Info("lifecycle stats",
		"ticks", s.Ticks,
		"dispatched", s.Dispatched,
		"backlogged", s.Backlogged,
		"built", s.Built,
		"stale", s.Stale,
		"duplicates", s.Duplicates,
		"failed", s.Failed,
		"destroyed", s.Destroyed,
		"tracked", s.Tracked,
		"active", s.Active,
		"cached", s.Cached,
		"surfaces_created", created,
		"surfaces_released", released,
		"surface_collisions", layer.Collisions(),
		"fingerprint", fmt.Sprintf("%016x", world.Fingerprint(mgr.Store())),
	)
}
