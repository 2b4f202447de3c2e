// Command tileview is an interactive window onto the streamed tile world.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"time"

	"tileworld/internal/config"
	"tileworld/internal/graphics"
	"tileworld/internal/input"
	"tileworld/internal/logging"
	"tileworld/internal/profiling"
	"tileworld/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	winWidth  = 1024
	winHeight = 768

	// Pan speed in screen pixels per second; the shift key multiplies it.
	panPixelsPerSecond = 480
	fastMultiplier     = 4
	zoomStep           = 1.25
)

func init() {
	runtime.LockOSThread()
}

func main() {
	worldFile := flag.String("world", "", "world definition (TOML); built-in when empty")
	fpsLimit := flag.Int("fps", 120, "frame rate cap, 0 for none")
	flag.Parse()

	conf, err := config.Load(*worldFile, slog.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, "tileview:", err)
		os.Exit(1)
	}
	log := logging.Init(conf.Logging.Level, conf.Logging.Format)

	if err := run(conf, *fpsLimit, log); err != nil {
		log.Error("tileview stopped", "err", err)
		os.Exit(1)
	}
}

func run(conf *config.Config, fpsLimit int, log *slog.Logger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		return err
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("init gl: %w", err)
	}

	layer, err := graphics.NewTileLayer(conf.Palette, log)
	if err != nil {
		return err
	}
	defer layer.Dispose()

	fbw, fbh := window.GetFramebufferSize()
	cam := graphics.NewCamera2D(fbw, fbh)
	gl.Viewport(0, 0, int32(fbw), int32(fbh))
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		cam.Resize(width, height)
	})

	observer := world.ObserverFunc(func() (mgl64.Vec2, bool) { return cam.Center, true })
	mc, err := conf.ManagerConfig(log, observer, layer)
	if err != nil {
		return err
	}
	mgr := world.NewManager(mc)
	defer mgr.Close()

	im := input.NewInputManager()
	im.Attach(window)

	runLoop(window, cam, im, mgr, layer, mc.Classifier, fpsLimit, log)
	return nil
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(winWidth, winHeight, "tileworld", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(0)
	return window, nil
}

func runLoop(window *glfw.Window, cam *graphics.Camera2D, im *input.InputManager, mgr *world.Manager,
	layer *graphics.TileLayer, classifier *world.Classifier, fpsLimit int, log *slog.Logger) {
	limiter := graphics.NewFrameLimiter(fpsLimit)
	showProfiling := false
	frames := 0
	lastTime := time.Now()
	lastReport := lastTime

	gl.ClearColor(0.05, 0.05, 0.08, 1)
	for !window.ShouldClose() {
		profiling.ResetFrame()
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if im.JustPressed(input.ActionQuit) {
			window.SetShouldClose(true)
		}
		if im.JustPressed(input.ActionToggleProfiling) {
			showProfiling = !showProfiling
		}
		if im.JustPressed(input.ActionZoomIn) {
			cam.ZoomBy(zoomStep)
		}
		if im.JustPressed(input.ActionZoomOut) {
			cam.ZoomBy(1 / zoomStep)
		}
		if s := im.Scroll(); s != 0 {
			cam.ZoomBy(math.Pow(zoomStep, s))
		}
		if dx, dy := im.PanAxis(); dx != 0 || dy != 0 {
			speed := panPixelsPerSecond / cam.Zoom
			if im.IsActive(input.ActionFast) {
				speed *= fastMultiplier
			}
			cam.Center = cam.Center.Add(mgl64.Vec2{dx, dy}.Normalize().Mul(speed * dt))
		}
		if im.JustPressed(input.ActionInspect) {
			inspect(mgr, classifier, cam.Center, log)
		}

		if err := mgr.Update(); err != nil {
			log.Error("world update failed", "err", err)
			window.SetShouldClose(true)
		}

		gl.Clear(gl.COLOR_BUFFER_BIT)
		layer.Draw(cam)
		func() { defer profiling.Track("glfw.SwapBuffers")(); window.SwapBuffers() }()
		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
		im.PostUpdate()
		frames++

		if time.Since(lastReport) >= time.Second {
			s := mgr.Stats()
			window.SetTitle(fmt.Sprintf("tileworld | %d fps | active %d cached %d pending %d",
				frames, s.Active, s.Cached, s.Pending))
			if showProfiling {
				log.Info("frame profile",
					"world", profiling.SumWithPrefix("world.").String(),
					"render", profiling.SumWithPrefix("render.").String(),
					"top", profiling.TopN(5),
				)
			}
			frames = 0
			lastReport = time.Now()
		}
		limiter.Wait()
	}
}

// inspect logs what lies under the observer.
func inspect(mgr *world.Manager, classifier *world.Classifier, pos mgl64.Vec2, log *slog.Logger) {
	size := mgr.ChunkSize()
	coord := world.ChunkAt(pos, size)
	origin := coord.Origin(size)
	lx := int(math.Floor(pos.X() - origin.X()))
	ly := int(math.Floor(pos.Y() - origin.Y()))

	data := mgr.Inspect(coord)
	h, t, m := data.Sample(lx, ly)
	biome := classifier.Classify(h, t, m)

	attrs := []any{
		"chunk", coord.String(),
		"cell", fmt.Sprintf("(%d,%d)", lx, ly),
		"height", h,
		"temperature", t,
		"humidity", m,
		"tile", biome.TileFor(h),
	}
	if biome != nil {
		attrs = append(attrs, "biome", biome.Name)
	}
	if rec, ok := mgr.Store().Lookup(coord); ok {
		attrs = append(attrs, "state", rec.State.String(), "checksum", fmt.Sprintf("%016x", rec.Checksum()))
	} else {
		attrs = append(attrs, "state", "untracked")
	}
	log.Info("inspect", attrs...)
}
