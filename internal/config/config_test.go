package config

import (
	"bytes"
	"errors"
	"image/color"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"tileworld/internal/world"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDefaultWorld verifies the embedded definition resolves completely
func TestDefaultWorld(t *testing.T) {
	c, err := Default(quietLog())
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if c.Settings.ChunkSize != 64 {
		t.Errorf("chunk size = %d, want 64", c.Settings.ChunkSize)
	}
	if c.Streaming.ViewDistance != 2 || c.Streaming.UnloadDistance != 4 {
		t.Errorf("view/unload = %d/%d, want 2/4", c.Streaming.ViewDistance, c.Streaming.UnloadDistance)
	}
	if c.Settings.Height.Params != world.DefaultHeightNoise() {
		t.Errorf("height params = %+v, want defaults", c.Settings.Height.Params)
	}
	if len(c.Biomes) != 7 || len(c.Rules) != 7 {
		t.Errorf("biomes/rules = %d/%d, want 7/7", len(c.Biomes), len(c.Rules))
	}
	if c.DefaultBiome == nil || c.DefaultBiome.Name != "plains" {
		t.Errorf("default biome = %v, want plains", c.DefaultBiome)
	}
	if len(c.Palette) != 11 {
		t.Errorf("palette has %d tiles, want 11", len(c.Palette))
	}

	var mountains *world.Biome
	for _, b := range c.Biomes {
		if b.Name == "mountains" {
			mountains = b
		}
	}
	if mountains == nil || mountains.MinHeight() != 0.6 || mountains.MaxHeight() != 1.0 {
		t.Error("mountains should span [0.6, 1.0] through the plains predecessor")
	}

	if _, err := c.Classifier(); err != nil {
		t.Errorf("Classifier: %v", err)
	}
}

// TestMissingKeysUseDefaults verifies an almost empty file falls back to built-in values
func TestMissingKeysUseDefaults(t *testing.T) {
	c, err := Parse([]byte(`
[world]
seed = 99
`), quietLog())
	if err != nil {
		t.Fatal(err)
	}
	if c.Settings.Seed != 99 {
		t.Errorf("seed = %d, want 99", c.Settings.Seed)
	}
	if c.Settings.ChunkSize != world.DefaultChunkSize {
		t.Errorf("chunk size = %d, want %d", c.Settings.ChunkSize, world.DefaultChunkSize)
	}
	if c.Settings.Humidity.Params != world.DefaultHumidityNoise() {
		t.Errorf("humidity params = %+v, want defaults", c.Settings.Humidity.Params)
	}
	if c.Streaming.ViewDistance != DefaultViewDistance || c.Streaming.UnloadDistance != DefaultUnloadDistance {
		t.Errorf("view/unload = %d/%d", c.Streaming.ViewDistance, c.Streaming.UnloadDistance)
	}
	if c.Logging.Level != "info" || c.Logging.Format != "text" {
		t.Errorf("logging = %+v", c.Logging)
	}
	if c.DefaultBiome != nil || len(c.Rules) != 0 {
		t.Error("no biomes were declared")
	}
}

// TestClamping verifies invalid values are clamped instead of rejected
func TestClamping(t *testing.T) {
	c, err := Parse([]byte(`
[world]
chunk_size = 0
view_distance = 3
unload_distance = 1

[noise.height]
scale = -5.0
octaves = 0
persistence = 4.0
lacunarity = 0.5
amplitude_factor = 0.0

[noise.temperature]
octaves = 30
offset = [1.0]

[logging]
format = "xml"
`), quietLog())
	if err != nil {
		t.Fatal(err)
	}

	if c.Settings.ChunkSize != 1 {
		t.Errorf("chunk size = %d, want 1", c.Settings.ChunkSize)
	}
	if c.Streaming.UnloadDistance != 4 {
		t.Errorf("unload = %d, want view+1 = 4", c.Streaming.UnloadDistance)
	}
	h := c.Settings.Height.Params
	if h.Scale != world.MinNoiseScale || h.Octaves != 1 || h.Persistence != 1 || h.Lacunarity != 1 || h.AmplitudeFactor != world.MinAmplitudeFactor {
		t.Errorf("height params not clamped: %+v", h)
	}
	if c.Settings.Temperature.Params.Octaves != world.MaxOctaves {
		t.Errorf("temperature octaves = %d, want %d", c.Settings.Temperature.Params.Octaves, world.MaxOctaves)
	}
	if c.Settings.Temperature.Offset.X() != 0 || c.Settings.Temperature.Offset.Y() != 0 {
		t.Error("a one-component offset should be ignored")
	}
	if c.Logging.Format != "text" {
		t.Errorf("format = %q, want text", c.Logging.Format)
	}
	if c.Streaming.Workers < 1 || c.Streaming.QueueSize != 4*7*7 {
		t.Errorf("workers/queue = %d/%d", c.Streaming.Workers, c.Streaming.QueueSize)
	}
}

// TestBiomeCycleRejected verifies a looping predecessor chain fails the load
func TestBiomeCycleRejected(t *testing.T) {
	_, err := Parse([]byte(`
[[biomes]]
name = "a"
before = "b"
  [[biomes.terrain]]
  name = "x"
  height = 0.5
  color = "#000000"
  tile = 1

[[biomes]]
name = "b"
before = "a"
  [[biomes.terrain]]
  name = "y"
  height = 0.9
  color = "#ffffff"
  tile = 2
`), quietLog())
	if !errors.Is(err, world.ErrBiomeCycle) {
		t.Errorf("Parse = %v, want ErrBiomeCycle", err)
	}
}

// TestUnknownReferences verifies unknown names degrade instead of failing
func TestUnknownReferences(t *testing.T) {
	c, err := Parse([]byte(`
[world]
default_biome = "nowhere"

[[biomes]]
name = "land"
before = "missing"
  [[biomes.terrain]]
  name = "grass"
  height = 1.0
  color = "not-a-color"
  tile = 4

[[rules]]
biome = "ghost"

[[rules]]
biome = "land"
temperature = [0.8, 0.2]
humidity = [0.1, 0.2, 0.3]
`), quietLog())
	if err != nil {
		t.Fatal(err)
	}
	if c.DefaultBiome != nil {
		t.Error("unknown default biome should resolve to nil")
	}
	if len(c.Rules) != 1 {
		t.Fatalf("rules = %d, want 1 (unknown biome skipped)", len(c.Rules))
	}
	r := c.Rules[0]
	if r.Biome.Before != nil {
		t.Error("unknown predecessor should be treated as none")
	}
	if r.Temperature != world.Span(0.2, 0.8) {
		t.Errorf("temperature = %+v, want swapped [0.2,0.8)", r.Temperature)
	}
	if r.Humidity.Enabled {
		t.Error("a three-element humidity range should be ignored")
	}
	if r.Biome.Terrain[0].Color != world.MissingColor {
		t.Error("a bad color should fall back to MissingColor")
	}
}

// TestWholeNumberFloats verifies integers are accepted wherever a float is expected
func TestWholeNumberFloats(t *testing.T) {
	c, err := Parse([]byte(`
[noise.height]
scale = 150
persistence = 1
offset = [10, -3]

[[biomes]]
name = "land"
  [[biomes.terrain]]
  name = "rock"
  height = 1
  color = "#808080"
  tile = 3

[[rules]]
biome = "land"
temperature = [0, 1]
humidity = [0, 0.5]
`), quietLog())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	h := c.Settings.Height
	if h.Params.Scale != 150 || h.Params.Persistence != 1 {
		t.Errorf("height params = %+v, want scale 150 and persistence 1", h.Params)
	}
	if h.Offset.X() != 10 || h.Offset.Y() != -3 {
		t.Errorf("offset = %v, want (10,-3)", h.Offset)
	}
	if got := c.Biomes[0].Terrain[0].Height; got != 1 {
		t.Errorf("terrain height = %v, want 1", got)
	}
	if len(c.Rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(c.Rules))
	}
	if r := c.Rules[0]; r.Temperature != world.Span(0, 1) || r.Humidity != world.Span(0, 0.5) {
		t.Errorf("ranges = %+v / %+v, want [0,1) and [0,0.5)", r.Temperature, r.Humidity)
	}
}

// TestTerrainWarnings verifies out-of-range heights are clamped and tile 0 is reported
func TestTerrainWarnings(t *testing.T) {
	var buf bytes.Buffer
	c, err := Parse([]byte(`
[[biomes]]
name = "land"
  [[biomes.terrain]]
  name = "void"
  height = nan
  color = "#000000"
  tile = 0

  [[biomes.terrain]]
  name = "peak"
  height = 2.5
  color = "#ffffff"
  tile = 9
`), slog.New(slog.NewTextHandler(&buf, nil)))
	if err != nil {
		t.Fatal(err)
	}
	terrain := c.Biomes[0].Terrain
	if h := terrain[0].Height; math.IsNaN(h) || h < 0 || h > 1 {
		t.Errorf("nan height resolved to %v, want a value in [0,1]", h)
	}
	if terrain[1].Height != 1 {
		t.Errorf("height = %v, want 1", terrain[1].Height)
	}
	out := buf.String()
	if strings.Count(out, "terrain height clamped") != 2 {
		t.Errorf("expected two clamp warnings, log:\n%s", out)
	}
	if !strings.Contains(out, "empty tile") || !strings.Contains(out, "terrain=void") {
		t.Errorf("tile 0 on a named terrain should warn, log:\n%s", out)
	}
	if _, ok := c.Palette[world.NoTile]; ok {
		t.Error("the empty tile must not enter the palette")
	}
}

// TestApplyEnv verifies environment overrides and malformed values
func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvSeed:           "12345",
		EnvViewDistance:   "5",
		EnvUnloadDistance: "oops",
		EnvWorkers:        "3",
		EnvLogLevel:       "DEBUG",
		EnvLogFormat:      "json",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	f, err := decode(defaultWorld)
	if err != nil {
		t.Fatal(err)
	}
	applyEnv(&f, lookup, quietLog())
	c, err := resolve(f, quietLog())
	if err != nil {
		t.Fatal(err)
	}

	if c.Settings.Seed != 12345 {
		t.Errorf("seed = %d, want 12345", c.Settings.Seed)
	}
	if c.Streaming.ViewDistance != 5 {
		t.Errorf("view = %d, want 5", c.Streaming.ViewDistance)
	}
	// The malformed unload override is ignored, then clamped above view.
	if c.Streaming.UnloadDistance != 6 {
		t.Errorf("unload = %d, want 6", c.Streaming.UnloadDistance)
	}
	if c.Streaming.Workers != 3 {
		t.Errorf("workers = %d, want 3", c.Streaming.Workers)
	}
	if c.Logging.Level != "debug" || c.Logging.Format != "json" {
		t.Errorf("logging = %+v", c.Logging)
	}
}

// TestManagerConfig verifies the assembled lifecycle configuration
func TestManagerConfig(t *testing.T) {
	c, err := Default(quietLog())
	if err != nil {
		t.Fatal(err)
	}
	layer := world.NewMemoryLayer()
	mc, err := c.ManagerConfig(quietLog(), nil, layer)
	if err != nil {
		t.Fatal(err)
	}
	if mc.Classifier == nil || mc.Surfaces != layer {
		t.Error("classifier or surfaces missing")
	}
	if mc.ViewDistance != 2 || mc.UnloadDistance != 4 || mc.MaxResultsPerUpdate != 8 {
		t.Errorf("distances/results = %d/%d/%d", mc.ViewDistance, mc.UnloadDistance, mc.MaxResultsPerUpdate)
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#1b3f8b")
	if err != nil || got != (color.RGBA{R: 0x1b, G: 0x3f, B: 0x8b, A: 0xff}) {
		t.Errorf("ParseColor(#1b3f8b) = %v, %v", got, err)
	}
	got, err = ParseColor("ff000080")
	if err != nil || got != (color.RGBA{R: 0xff, A: 0x80}) {
		t.Errorf("ParseColor(ff000080) = %v, %v", got, err)
	}
	for _, bad := range []string{"", "#123", "#gggggg", "#1234567"} {
		if _, err := ParseColor(bad); !errors.Is(err, ErrInvalidColor) {
			t.Errorf("ParseColor(%q) error = %v, want ErrInvalidColor", bad, err)
		}
	}
}
