package world

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Seed deltas keep the three axes decorrelated.
const (
	heightSeedDelta      = 0
	temperatureSeedDelta = 1
	humiditySeedDelta    = 2
)

// DefaultChunkSize is the chunk edge length in tiles when none is configured.
const DefaultChunkSize = 64

// NoiseAxis is the noise configuration of one raster.
type NoiseAxis struct {
	Params NoiseParams
	// Offset is added to every sample position of this axis.
	Offset mgl64.Vec2
}

// Settings holds the immutable world generation parameters.
type Settings struct {
	Seed        int64
	ChunkSize   int
	Height      NoiseAxis
	Temperature NoiseAxis
	Humidity    NoiseAxis
}

// DefaultSettings returns the generation settings for seed.
func DefaultSettings(seed int64) Settings {
	return Settings{
		Seed:        seed,
		ChunkSize:   DefaultChunkSize,
		Height:      NoiseAxis{Params: DefaultHeightNoise()},
		Temperature: NoiseAxis{Params: DefaultTemperatureNoise()},
		Humidity:    NoiseAxis{Params: DefaultHumidityNoise()},
	}
}

// Clamped returns a copy of s with every parameter in range.
func (s Settings) Clamped() Settings {
	s.ChunkSize = max(s.ChunkSize, 1)
	s.Height.Params = s.Height.Params.Clamped()
	s.Temperature.Params = s.Temperature.Params.Clamped()
	s.Humidity.Params = s.Humidity.Params.Clamped()
	return s
}

type axisJob struct {
	seed   int64
	params NoiseParams
	offset mgl64.Vec2
	dst    func(*ChunkRasterData) **Raster
}

// axes describes the three rasters of coord: seed, parameters and sample offset.
func (s Settings) axes(coord ChunkCoord) [3]axisJob {
	origin := coord.Origin(s.ChunkSize)
	return [3]axisJob{
		{
			seed:   s.Seed + heightSeedDelta,
			params: s.Height.Params,
			offset: s.Height.Offset.Add(origin),
			dst:    func(d *ChunkRasterData) **Raster { return &d.Height },
		},
		{
			seed:   s.Seed + temperatureSeedDelta,
			params: s.Temperature.Params,
			offset: s.Temperature.Offset.Add(origin),
			dst:    func(d *ChunkRasterData) **Raster { return &d.Temperature },
		},
		{
			seed:   s.Seed + humiditySeedDelta,
			params: s.Humidity.Params,
			offset: s.Humidity.Offset.Add(origin),
			dst:    func(d *ChunkRasterData) **Raster { return &d.Humidity },
		},
	}
}

// RastersSync computes the rasters of coord on the calling goroutine.
func (s Settings) RastersSync(coord ChunkCoord) *ChunkRasterData {
	data := &ChunkRasterData{Coord: coord}
	for _, job := range s.axes(coord) {
		*job.dst(data) = GenerateNoiseMap(s.ChunkSize, job.seed, job.params, job.offset)
	}
	return data
}
