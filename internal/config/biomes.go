package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"tileworld/internal/world"
)

// ErrInvalidColor is returned for colors not written as "#rrggbb" or "#rrggbbaa".
var ErrInvalidColor = errors.New("config: invalid color")

type biomeFile struct {
	Name    string        `toml:"name"`
	Before  string        `toml:"before"`
	Terrain []terrainFile `toml:"terrain"`
}

type terrainFile struct {
	Name   string  `toml:"name"`
	Height float64 `toml:"height"`
	Color  string  `toml:"color"`
	Tile   int     `toml:"tile"`
}

type ruleFile struct {
	Biome       string    `toml:"biome"`
	Temperature []float64 `toml:"temperature"`
	Humidity    []float64 `toml:"humidity"`
}

// linkBiomes builds the biome table, resolves names and rejects predecessor cycles.
func (c *Config) linkBiomes(f fileConfig, log *slog.Logger) error {
	byName := make(map[string]*world.Biome, len(f.Biomes))
	c.Palette = make(map[world.TileID]color.RGBA)

	for _, bf := range f.Biomes {
		if bf.Name == "" {
			log.Warn("skipping biome without a name")
			continue
		}
		if _, dup := byName[bf.Name]; dup {
			log.Warn("skipping duplicate biome", "biome", bf.Name)
			continue
		}
		b := &world.Biome{Name: bf.Name, Terrain: make([]world.TerrainRule, 0, len(bf.Terrain))}
		prev := 0.0
		for _, tf := range bf.Terrain {
			rule := c.terrainRule(tf, log)
			if rule.Height < prev {
				log.Warn("terrain ceilings should ascend", "biome", bf.Name, "terrain", rule.Name, "height", rule.Height)
			}
			prev = rule.Height
			b.Terrain = append(b.Terrain, rule)
		}
		byName[bf.Name] = b
		c.Biomes = append(c.Biomes, b)
	}

	for _, bf := range f.Biomes {
		if bf.Before == "" {
			continue
		}
		b, ok := byName[bf.Name]
		if !ok || b.Before != nil {
			continue
		}
		before, ok := byName[bf.Before]
		if !ok {
			log.Warn("unknown predecessor biome, treating as none", "biome", bf.Name, "before", bf.Before)
			continue
		}
		b.Before = before
	}
	for _, b := range c.Biomes {
		if err := world.ValidateChain(b); err != nil {
			return err
		}
	}

	for i, rf := range f.Rules {
		b, ok := byName[rf.Biome]
		if !ok {
			log.Warn("skipping rule for unknown biome", "rule", i, "biome", rf.Biome)
			continue
		}
		c.Rules = append(c.Rules, world.BiomeRule{
			Biome:       b,
			Temperature: parseRange(rf.Temperature, "temperature", i, log),
			Humidity:    parseRange(rf.Humidity, "humidity", i, log),
		})
	}

	if name := f.World.DefaultBiome; name != "" {
		if b, ok := byName[name]; ok {
			c.DefaultBiome = b
		} else {
			log.Warn("unknown default biome, unmatched cells stay empty", "biome", name)
		}
	}
	return nil
}

func (c *Config) terrainRule(tf terrainFile, log *slog.Logger) world.TerrainRule {
	col, err := ParseColor(tf.Color)
	if err != nil {
		log.Warn("bad terrain color, drawing it as missing", "terrain", tf.Name, "err", err)
		col = world.MissingColor
	}
	h := tf.Height
	if !(h >= 0 && h <= 1) {
		if math.IsNaN(h) {
			h = 0
		} else {
			h = min(max(h, 0), 1)
		}
		log.Warn("terrain height clamped", "terrain", tf.Name, "configured", tf.Height, "used", h)
	}
	tile := world.TileID(tf.Tile)
	if tile == world.NoTile && tf.Name != "" {
		log.Warn("terrain uses the empty tile, its cells will not be drawn", "terrain", tf.Name)
	}
	if tile != world.NoTile {
		if _, seen := c.Palette[tile]; !seen {
			c.Palette[tile] = col
		}
	}
	return world.TerrainRule{Name: tf.Name, Height: h, Color: col, Tile: tile}
}

// parseRange turns an optional [min, max] pair into a range; anything else is unconstrained.
func parseRange(v []float64, what string, rule int, log *slog.Logger) world.Range {
	switch len(v) {
	case 0:
		return world.Range{}
	case 2:
		if v[0] > v[1] {
			log.Warn("range bounds reversed, swapping", "rule", rule, "range", what)
			return world.Span(v[1], v[0])
		}
		return world.Span(v[0], v[1])
	default:
		log.Warn("range needs two bounds, ignoring it", "rule", rule, "range", what, "value", v)
		return world.Range{}
	}
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
