package config

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"tileworld/internal/world"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
)

//go:embed default.toml
var defaultWorld []byte

// Environment variables that override the world file.
const (
	EnvSeed           = "TILEWORLD_SEED"
	EnvViewDistance   = "TILEWORLD_VIEW_DISTANCE"
	EnvUnloadDistance = "TILEWORLD_UNLOAD_DISTANCE"
	EnvWorkers        = "TILEWORLD_WORKERS"
	EnvLogLevel       = "TILEWORLD_LOG_LEVEL"
	EnvLogFormat      = "TILEWORLD_LOG_FORMAT"
)

// Defaults for keys missing from the world file.
const (
	DefaultViewDistance   = 2
	DefaultUnloadDistance = 4
)

// Streaming holds the lifecycle manager knobs.
type Streaming struct {
	ViewDistance        int
	UnloadDistance      int
	Workers             int
	QueueSize           int
	MaxResultsPerUpdate int
	RetainRasters       bool
}

// Logging selects the log level and handler.
type Logging struct {
	Level  string
	Format string
}

// Config is a fully resolved world definition. It is immutable once loaded.
type Config struct {
	Settings  world.Settings
	Streaming Streaming
	Logging   Logging

	// Biomes in declaration order.
	Biomes       []*world.Biome
	Rules        []world.BiomeRule
	DefaultBiome *world.Biome
	// Palette maps every tile used by a terrain rule to its display color.
	Palette map[world.TileID]color.RGBA
}

type fileConfig struct {
	World   worldFile   `toml:"world"`
	Noise   noiseFile   `toml:"noise"`
	Logging loggingFile `toml:"logging"`
	Biomes  []biomeFile `toml:"biomes"`
	Rules   []ruleFile  `toml:"rules"`
}

type worldFile struct {
	Seed                int64  `toml:"seed"`
	ChunkSize           int    `toml:"chunk_size"`
	ViewDistance        int    `toml:"view_distance"`
	UnloadDistance      int    `toml:"unload_distance"`
	Workers             int    `toml:"workers"`
	QueueSize           int    `toml:"queue_size"`
	MaxResultsPerUpdate int    `toml:"max_results_per_update"`
	RetainRasters       bool   `toml:"retain_rasters"`
	DefaultBiome        string `toml:"default_biome"`
}

type loggingFile struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in world definition.
func Default(log *slog.Logger) (*Config, error) {
	return Parse(defaultWorld, log)
}

// Load reads the world file at path (the built-in definition when path is
// empty), applies .env and environment overrides and resolves it.
func Load(path string, log *slog.Logger) (*Config, error) {
	if log == nil {
		log = slog.Default()
	}
	data := defaultWorld
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read world file: %w", err)
		}
	}

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not load .env file", "err", err)
	}

	f, err := decode(data)
	if err != nil {
		return nil, err
	}
	applyEnv(&f, os.LookupEnv, log)
	return resolve(f, log)
}

// Parse resolves a world definition without consulting the environment.
func Parse(data []byte, log *slog.Logger) (*Config, error) {
	if log == nil {
		log = slog.Default()
	}
	f, err := decode(data)
	if err != nil {
		return nil, err
	}
	return resolve(f, log)
}

// decode parses the world file and fills in every key it leaves out.
func decode(data []byte) (fileConfig, error) {
	var f fileConfig
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return f, fmt.Errorf("parse world file: %w", err)
	}
	normalizeFloats(tree)
	if err := tree.Unmarshal(&f); err != nil {
		return f, fmt.Errorf("decode world file: %w", err)
	}

	setDefault(tree, "world.chunk_size", &f.World.ChunkSize, world.DefaultChunkSize)
	setDefault(tree, "world.view_distance", &f.World.ViewDistance, DefaultViewDistance)
	setDefault(tree, "world.unload_distance", &f.World.UnloadDistance, DefaultUnloadDistance)
	setDefault(tree, "logging.level", &f.Logging.Level, "info")
	setDefault(tree, "logging.format", &f.Logging.Format, "text")
	f.Noise.Height.fillDefaults(tree, "noise.height", world.DefaultHeightNoise())
	f.Noise.Temperature.fillDefaults(tree, "noise.temperature", world.DefaultTemperatureNoise())
	f.Noise.Humidity.fillDefaults(tree, "noise.humidity", world.DefaultHumidityNoise())
	return f, nil
}

// normalizeFloats rewrites whole numbers under float keys as floats, so
// "scale = 150" decodes the same as "scale = 150.0".
func normalizeFloats(tree *toml.Tree) {
	for _, axis := range []string{"noise.height", "noise.temperature", "noise.humidity"} {
		if sub, ok := tree.Get(axis).(*toml.Tree); ok {
			floatKeys(sub, axisFloatKeys...)
		}
	}
	for _, biome := range subtrees(tree.Get("biomes")) {
		for _, terrain := range subtrees(biome.Get("terrain")) {
			floatKeys(terrain, "height")
		}
	}
	for _, rule := range subtrees(tree.Get("rules")) {
		floatKeys(rule, "temperature", "humidity")
	}
}

func floatKeys(tree *toml.Tree, keys ...string) {
	for _, key := range keys {
		switch v := tree.Get(key).(type) {
		case int64:
			tree.Set(key, float64(v))
		case []int64:
			fs := make([]interface{}, len(v))
			for i, n := range v {
				fs[i] = float64(n)
			}
			tree.Set(key, fs)
		case []interface{}:
			fs := make([]interface{}, len(v))
			for i, e := range v {
				if n, ok := e.(int64); ok {
					fs[i] = float64(n)
				} else {
					fs[i] = e
				}
			}
			tree.Set(key, fs)
		}
	}
}

func subtrees(v interface{}) []*toml.Tree {
	switch v := v.(type) {
	case []*toml.Tree:
		return v
	case *toml.Tree:
		return []*toml.Tree{v}
	}
	return nil
}

// setDefault stores def in dst when key is absent from the file.
func setDefault[T any](tree *toml.Tree, key string, dst *T, def T) {
	if !tree.Has(key) {
		*dst = def
	}
}

func applyEnv(f *fileConfig, lookup func(string) (string, bool), log *slog.Logger) {
	envInt := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			log.Warn("ignoring malformed environment override", "key", key, "value", v)
			return
		}
		*dst = n
	}

	if v, ok := lookup(EnvSeed); ok && v != "" {
		if seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			f.World.Seed = seed
		} else {
			log.Warn("ignoring malformed environment override", "key", EnvSeed, "value", v)
		}
	}
	envInt(EnvViewDistance, &f.World.ViewDistance)
	envInt(EnvUnloadDistance, &f.World.UnloadDistance)
	envInt(EnvWorkers, &f.World.Workers)
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		f.Logging.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		f.Logging.Format = v
	}
}

// resolve clamps every value and links the biome tables.
func resolve(f fileConfig, log *slog.Logger) (*Config, error) {
	c := &Config{
		Settings: world.Settings{
			Seed:        f.World.Seed,
			ChunkSize:   f.World.ChunkSize,
			Height:      f.Noise.Height.axis("height", log),
			Temperature: f.Noise.Temperature.axis("temperature", log),
			Humidity:    f.Noise.Humidity.axis("humidity", log),
		},
		Streaming: Streaming{
			ViewDistance:        f.World.ViewDistance,
			UnloadDistance:      f.World.UnloadDistance,
			Workers:             f.World.Workers,
			QueueSize:           f.World.QueueSize,
			MaxResultsPerUpdate: f.World.MaxResultsPerUpdate,
			RetainRasters:       f.World.RetainRasters,
		},
		Logging: Logging{
			Level:  strings.ToLower(f.Logging.Level),
			Format: strings.ToLower(f.Logging.Format),
		},
	}
	c.clamp(log)

	if err := c.linkBiomes(f, log); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) clamp(log *slog.Logger) {
	if c.Settings.ChunkSize < 1 {
		log.Warn("chunk size clamped", "configured", c.Settings.ChunkSize, "used", 1)
		c.Settings.ChunkSize = 1
	}
	s := &c.Streaming
	if s.ViewDistance < 0 {
		log.Warn("view distance clamped", "configured", s.ViewDistance, "used", 0)
		s.ViewDistance = 0
	}
	if s.UnloadDistance <= s.ViewDistance {
		log.Warn("unload distance must exceed view distance",
			"view_distance", s.ViewDistance,
			"configured", s.UnloadDistance,
			"used", s.ViewDistance+1,
		)
		s.UnloadDistance = s.ViewDistance + 1
	}
	if s.Workers <= 0 {
		s.Workers = max(runtime.NumCPU(), 1)
	}
	if s.QueueSize <= 0 {
		side := 2*s.ViewDistance + 1
		s.QueueSize = 4 * side * side
	}
	s.MaxResultsPerUpdate = max(s.MaxResultsPerUpdate, 0)

	switch c.Logging.Format {
	case "text", "json":
	default:
		log.Warn("unknown log format, using text", "configured", c.Logging.Format)
		c.Logging.Format = "text"
	}
}

// Classifier builds the biome classifier of the definition.
func (c *Config) Classifier() (*world.Classifier, error) {
	return world.NewClassifier(c.Rules, c.DefaultBiome)
}

// ManagerConfig assembles the lifecycle manager configuration.
func (c *Config) ManagerConfig(log *slog.Logger, observer world.ObserverSource, surfaces world.SurfaceFactory) (world.Config, error) {
	classifier, err := c.Classifier()
	if err != nil {
		return world.Config{}, err
	}
	return world.Config{
		Log:                 log,
		Observer:            observer,
		Settings:            c.Settings,
		Classifier:          classifier,
		Surfaces:            surfaces,
		ViewDistance:        c.Streaming.ViewDistance,
		UnloadDistance:      c.Streaming.UnloadDistance,
		Workers:             c.Streaming.Workers,
		QueueSize:           c.Streaming.QueueSize,
		MaxResultsPerUpdate: c.Streaming.MaxResultsPerUpdate,
		RetainRasters:       c.Streaming.RetainRasters,
	}, nil
}
