package world

import (
	"math"
	"math/rand/v2"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"
)

// Limits applied by NoiseParams.Clamped.
const (
	MinNoiseScale      = 0.0001
	MinAmplitudeFactor = 0.0001
	MinOctaves         = 1
	MaxOctaves         = 12

	// Octave offsets are drawn from [-octaveOffsetRange, octaveOffsetRange).
	octaveOffsetRange = 100000

	// go-perlin repeats every 256 lattice units.
	perlinPeriod = 256
	latticeSeed  = 0x5EED
)

// Basis selects the gradient noise sampled by every octave.
type Basis string

const (
	BasisPerlin  Basis = "perlin"
	BasisSimplex Basis = "simplex"
)

// The lattices are immutable after construction and safe for concurrent reads.
var (
	perlinLattice  = perlin.NewPerlin(2, 2, 1, latticeSeed)
	simplexLattice = opensimplex.NewNormalized(latticeSeed)
)

// NoiseParams describes a multi-octave noise field.
type NoiseParams struct {
	Scale           float64
	Octaves         int
	Persistence     float64
	Lacunarity      float64
	AmplitudeFactor float64
	Basis           Basis
}

// DefaultHeightNoise returns the elevation parameters used when none are configured.
func DefaultHeightNoise() NoiseParams {
	return NoiseParams{Scale: 150, Octaves: 5, Persistence: 0.5, Lacunarity: 2.2, AmplitudeFactor: 1.25, Basis: BasisPerlin}
}

// DefaultTemperatureNoise returns the temperature parameters used when none are configured.
func DefaultTemperatureNoise() NoiseParams {
	return NoiseParams{Scale: 50, Octaves: 4, Persistence: 0.5, Lacunarity: 2.0, AmplitudeFactor: 1.0, Basis: BasisPerlin}
}

// DefaultHumidityNoise returns the humidity parameters used when none are configured.
func DefaultHumidityNoise() NoiseParams {
	return NoiseParams{Scale: 75, Octaves: 4, Persistence: 0.5, Lacunarity: 2.0, AmplitudeFactor: 1.0, Basis: BasisPerlin}
}

// Clamped returns a copy with every field forced into its valid range.
func (p NoiseParams) Clamped() NoiseParams {
	if !(p.Scale >= MinNoiseScale) {
		p.Scale = MinNoiseScale
	}
	p.Octaves = min(max(p.Octaves, MinOctaves), MaxOctaves)
	if !(p.Persistence >= 0) {
		p.Persistence = 0
	}
	p.Persistence = min(p.Persistence, 1)
	if !(p.Lacunarity >= 1) {
		p.Lacunarity = 1
	}
	if !(p.AmplitudeFactor >= MinAmplitudeFactor) {
		p.AmplitudeFactor = MinAmplitudeFactor
	}
	if p.Basis != BasisSimplex {
		p.Basis = BasisPerlin
	}
	return p
}

// sample returns gradient noise at (x, y) mapped to [0,1].
func (b Basis) sample(x, y float64) float64 {
	if b == BasisSimplex {
		return clamp01(simplexLattice.Eval2(x, y))
	}
	// Wrapping into one period keeps the lattice arithmetic away from negative
	// coordinates without changing the field.
	x = wrapPeriod(x)
	y = wrapPeriod(y)
	return clamp01((perlinLattice.Noise2D(x, y) + 1) * 0.5)
}

// OctaveOffsets returns the per-octave sample offsets derived from seed.
func OctaveOffsets(seed int64, octaves int) []mgl64.Vec2 {
	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	offsets := make([]mgl64.Vec2, octaves)
	for i := range offsets {
		ox := float64(rng.IntN(2*octaveOffsetRange) - octaveOffsetRange)
		oy := float64(rng.IntN(2*octaveOffsetRange) - octaveOffsetRange)
		offsets[i] = mgl64.Vec2{ox, oy}
	}
	return offsets
}

// GenerateNoiseMap fills a size x size raster with normalized multi-octave noise.
// The result depends only on its arguments.
func GenerateNoiseMap(size int, seed int64, params NoiseParams, offset mgl64.Vec2) *Raster {
	size = max(size, 0)
	params = params.Clamped()
	raster := NewRaster(size)

	octaveOffsets := OctaveOffsets(seed, params.Octaves)

	maxPossible := 0.0
	amplitude := 1.0
	for range params.Octaves {
		maxPossible += amplitude
		amplitude *= params.Persistence
	}
	normMax := maxPossible * params.AmplitudeFactor
	divisor := 2 * normMax
	if divisor == 0 {
		divisor = 0.00001
	}

	for y := range size {
		for x := range size {
			amplitude = 1
			frequency := 1.0
			raw := 0.0
			for i := range params.Octaves {
				sx := (float64(x) + offset.X() + octaveOffsets[i].X()) / params.Scale * frequency
				sy := (float64(y) + offset.Y() + octaveOffsets[i].Y()) / params.Scale * frequency

				raw += (params.Basis.sample(sx, sy)*2 - 1) * amplitude

				amplitude *= params.Persistence
				frequency *= params.Lacunarity
			}
			raw *= params.AmplitudeFactor
			raster.Set(x, y, clamp01((raw+normMax)/divisor))
		}
	}

	return raster
}

func wrapPeriod(v float64) float64 {
	v = math.Mod(v, perlinPeriod)
	if v < 0 {
		v += perlinPeriod
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
