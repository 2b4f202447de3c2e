package world

import (
	"errors"
	"fmt"
	"image/color"
)

// TileID identifies a terrain tile. NoTile renders as absence of terrain.
type TileID int32

const NoTile TileID = 0

// ErrBiomeCycle is returned when a biome predecessor chain loops back on itself.
var ErrBiomeCycle = errors.New("world: cyclic biome predecessor chain")

var (
	// MissingColor marks cells whose biome is unknown or has no terrain.
	MissingColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// TerrainRule maps elevation up to Height onto a tile.
type TerrainRule struct {
	Name   string
	Height float64
	Color  color.RGBA
	Tile   TileID
}

// Biome is an ordered set of terrain rules, sorted by ascending Height.
type Biome struct {
	Name    string
	Terrain []TerrainRule
	// Before is the biome directly below this one in elevation, or nil.
	Before *Biome
}

// MinHeight is the last ceiling of the predecessor, or 0.
func (b *Biome) MinHeight() float64 {
	if b.Before == nil || len(b.Before.Terrain) == 0 {
		return 0
	}
	return b.Before.Terrain[len(b.Before.Terrain)-1].Height
}

// MaxHeight is the biome's own last ceiling, or 1 when it has no terrain.
func (b *Biome) MaxHeight() float64 {
	if len(b.Terrain) == 0 {
		return 1
	}
	return b.Terrain[len(b.Terrain)-1].Height
}

// TerrainFor returns the rule covering elevation h: the first whose ceiling
// reaches h, else the last one. ok is false when b is nil or has no terrain.
func (b *Biome) TerrainFor(h float64) (rule TerrainRule, ok bool) {
	if b == nil || len(b.Terrain) == 0 {
		return TerrainRule{}, false
	}
	for _, r := range b.Terrain {
		if h <= r.Height {
			return r, true
		}
	}
	return b.Terrain[len(b.Terrain)-1], true
}

// TileFor returns the tile for elevation h, or NoTile.
func (b *Biome) TileFor(h float64) TileID {
	r, ok := b.TerrainFor(h)
	if !ok {
		return NoTile
	}
	return r.Tile
}

// ColorFor returns the display color for elevation h, or MissingColor.
func (b *Biome) ColorFor(h float64) color.RGBA {
	r, ok := b.TerrainFor(h)
	if !ok {
		return MissingColor
	}
	return r.Color
}

// ValidateChain walks the predecessor chain of b and reports a cycle.
func ValidateChain(b *Biome) error {
	seen := make(map[*Biome]struct{})
	for cur := b; cur != nil; cur = cur.Before {
		if _, ok := seen[cur]; ok {
			return fmt.Errorf("%w: %q reaches %q again", ErrBiomeCycle, b.Name, cur.Name)
		}
		seen[cur] = struct{}{}
	}
	return nil
}

// Range is an optional [Min, Max) interval.
type Range struct {
	Enabled  bool
	Min, Max float64
}

// Span builds an enabled range.
func Span(lo, hi float64) Range {
	return Range{Enabled: true, Min: lo, Max: hi}
}

// admits reports whether v lies in [Min, Max). A disabled range admits everything.
func (r Range) admits(v float64) bool {
	return !r.Enabled || (v >= r.Min && v < r.Max)
}

// BiomeRule selects Biome when the sample satisfies its constraints.
// The height range comes from the biome itself.
type BiomeRule struct {
	Biome       *Biome
	Temperature Range
	Humidity    Range
}

// score returns the number of satisfied constraints, or -1 if the rule does not apply.
func (r BiomeRule) score(h, t, m float64) int {
	if r.Biome == nil {
		return -1
	}
	if h < r.Biome.MinHeight() || h > r.Biome.MaxHeight() {
		return -1
	}
	score := 1
	if r.Temperature.Enabled {
		if !r.Temperature.admits(t) {
			return -1
		}
		score++
	}
	if r.Humidity.Enabled {
		if !r.Humidity.admits(m) {
			return -1
		}
		score++
	}
	return score
}

// SelectBiome returns the highest scoring biome for the sample. Ties go to the
// rule declared first; if no rule applies, def is returned.
func SelectBiome(h, t, m float64, rules []BiomeRule, def *Biome) *Biome {
	best := def
	bestScore := -1
	for _, rule := range rules {
		score := rule.score(h, t, m)
		if score < 0 {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = rule.Biome
		}
	}
	return best
}

// Classifier bundles an immutable rule table with its fallback biome.
type Classifier struct {
	rules []BiomeRule
	def   *Biome
}

// NewClassifier validates every biome chain reachable from rules and def.
func NewClassifier(rules []BiomeRule, def *Biome) (*Classifier, error) {
	for _, r := range rules {
		if r.Biome == nil {
			continue
		}
		if err := ValidateChain(r.Biome); err != nil {
			return nil, err
		}
	}
	if def != nil {
		if err := ValidateChain(def); err != nil {
			return nil, err
		}
	}
	return &Classifier{rules: append([]BiomeRule(nil), rules...), def: def}, nil
}

// Classify returns the biome for a sample.
func (c *Classifier) Classify(h, t, m float64) *Biome {
	return SelectBiome(h, t, m, c.rules, c.def)
}

// Default returns the fallback biome, possibly nil.
func (c *Classifier) Default() *Biome {
	return c.def
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []BiomeRule {
	return append([]BiomeRule(nil), c.rules...)
}
