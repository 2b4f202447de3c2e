package world

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// TestGenerateNoiseMapDeterministic verifies identical inputs give bit-identical rasters
func TestGenerateNoiseMapDeterministic(t *testing.T) {
	params := DefaultHeightNoise()
	offset := mgl64.Vec2{128, -64}

	first := GenerateNoiseMap(16, 42, params, offset).Checksum()
	for i := range 100 {
		if got := GenerateNoiseMap(16, 42, params, offset).Checksum(); got != first {
			t.Fatalf("run %d: checksum %x differs from first run %x", i, got, first)
		}
	}
}

// TestGenerateNoiseMapConcurrent verifies concurrent calls agree with a sequential call
func TestGenerateNoiseMapConcurrent(t *testing.T) {
	params := DefaultTemperatureNoise()
	offset := mgl64.Vec2{-300, 75}
	want := GenerateNoiseMap(24, 7, params, offset).Checksum()

	var wg sync.WaitGroup
	sums := make([]uint64, 16)
	for i := range sums {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sums[i] = GenerateNoiseMap(24, 7, params, offset).Checksum()
		}()
	}
	wg.Wait()

	for i, got := range sums {
		if got != want {
			t.Errorf("goroutine %d: checksum %x, want %x", i, got, want)
		}
	}
}

// TestGenerateNoiseMapRange verifies every sample lies in [0,1] across the valid parameter space
func TestGenerateNoiseMapRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(12345, 0)) // deterministic test RNG

	for i := range 60 {
		params := NoiseParams{
			Scale:           0.5 + rng.Float64()*200,
			Octaves:         1 + rng.IntN(MaxOctaves),
			Persistence:     rng.Float64(),
			Lacunarity:      1 + rng.Float64()*3,
			AmplitudeFactor: 0.01 + rng.Float64()*4,
			Basis:           BasisPerlin,
		}
		if i%2 == 1 {
			params.Basis = BasisSimplex
		}
		offset := mgl64.Vec2{rng.Float64()*2e5 - 1e5, rng.Float64()*2e5 - 1e5}
		r := GenerateNoiseMap(8, rng.Int64(), params, offset)
		for j, v := range r.Values {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("params %+v: sample %d = %v outside [0,1]", params, j, v)
			}
		}
	}
}

// TestGenerateNoiseMapEdgeParams verifies degenerate parameters still produce a valid raster
func TestGenerateNoiseMapEdgeParams(t *testing.T) {
	cases := []NoiseParams{
		{Scale: 0, Octaves: 0, Persistence: 0.5, Lacunarity: 2, AmplitudeFactor: 1},
		{Scale: -10, Octaves: 40, Persistence: 2, Lacunarity: 0.2, AmplitudeFactor: 0},
		{Scale: 50, Octaves: 3, Persistence: 0, Lacunarity: 1, AmplitudeFactor: 1},
	}
	for _, p := range cases {
		r := GenerateNoiseMap(4, 1, p, mgl64.Vec2{})
		if len(r.Values) != 16 {
			t.Fatalf("params %+v: got %d samples, want 16", p, len(r.Values))
		}
		for _, v := range r.Values {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Errorf("params %+v: sample %v outside [0,1]", p, v)
			}
		}
	}
}

// TestNoiseParamsClamped verifies every field is forced into range
func TestNoiseParamsClamped(t *testing.T) {
	p := NoiseParams{Scale: -1, Octaves: 99, Persistence: 3, Lacunarity: 0.5, AmplitudeFactor: -2, Basis: "bogus"}.Clamped()

	if p.Scale != MinNoiseScale {
		t.Errorf("Scale = %v, want %v", p.Scale, MinNoiseScale)
	}
	if p.Octaves != MaxOctaves {
		t.Errorf("Octaves = %d, want %d", p.Octaves, MaxOctaves)
	}
	if p.Persistence != 1 {
		t.Errorf("Persistence = %v, want 1", p.Persistence)
	}
	if p.Lacunarity != 1 {
		t.Errorf("Lacunarity = %v, want 1", p.Lacunarity)
	}
	if p.AmplitudeFactor != MinAmplitudeFactor {
		t.Errorf("AmplitudeFactor = %v, want %v", p.AmplitudeFactor, MinAmplitudeFactor)
	}
	if p.Basis != BasisPerlin {
		t.Errorf("Basis = %q, want %q", p.Basis, BasisPerlin)
	}

	if got := (NoiseParams{Octaves: -3}).Clamped().Octaves; got != MinOctaves {
		t.Errorf("negative octaves clamped to %d, want %d", got, MinOctaves)
	}
}

// TestOctaveOffsetsStable verifies offsets depend on the seed only and stay in range
func TestOctaveOffsetsStable(t *testing.T) {
	a := OctaveOffsets(99, 6)
	b := OctaveOffsets(99, 6)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("offset %d differs between calls: %v vs %v", i, a[i], b[i])
		}
		for _, v := range a[i] {
			if v < -octaveOffsetRange || v >= octaveOffsetRange {
				t.Errorf("offset %d component %v outside [-%d,%d)", i, v, octaveOffsetRange, octaveOffsetRange)
			}
		}
	}

	// A longer request extends the same sequence.
	c := OctaveOffsets(99, 8)
	for i := range a {
		if a[i] != c[i] {
			t.Errorf("offset %d changed when more octaves were requested", i)
		}
	}

	if OctaveOffsets(100, 1)[0] == a[0] {
		t.Error("different seeds should produce different offsets")
	}
}

// TestGenerateNoiseMapSeedsDiffer verifies different seeds give different fields
func TestGenerateNoiseMapSeedsDiffer(t *testing.T) {
	params := DefaultHeightNoise()
	a := GenerateNoiseMap(16, 1, params, mgl64.Vec2{})
	b := GenerateNoiseMap(16, 2, params, mgl64.Vec2{})
	if a.Checksum() == b.Checksum() {
		t.Error("seeds 1 and 2 produced identical rasters")
	}
}

// TestGenerateNoiseMapContinuity verifies adjacent chunks line up: the cell past
// one chunk's edge equals the first cell of its neighbour.
func TestGenerateNoiseMapContinuity(t *testing.T) {
	params := DefaultHeightNoise()
	const size = 8
	wide := GenerateNoiseMap(size*2, 5, params, mgl64.Vec2{})
	right := GenerateNoiseMap(size, 5, params, mgl64.Vec2{size, 0})

	for y := range size {
		for x := range size {
			if wide.At(size+x, y) != right.At(x, y) {
				t.Fatalf("cell (%d,%d): wide raster %v, neighbour %v", x, y, wide.At(size+x, y), right.At(x, y))
			}
		}
	}
}

func BenchmarkGenerateNoiseMap(b *testing.B) {
	params := DefaultHeightNoise()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateNoiseMap(DefaultChunkSize, 42, params, mgl64.Vec2{float64(i * DefaultChunkSize), 0})
	}
}
