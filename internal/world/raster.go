package world

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// Raster is a square grid of scalar samples stored row-major.
type Raster struct {
	Size   int
	Values []float64
}

// NewRaster allocates a zeroed size x size raster.
func NewRaster(size int) *Raster {
	return &Raster{Size: size, Values: make([]float64, size*size)}
}

// Index converts local (x, y) to an offset into Values.
func (r *Raster) Index(x, y int) int {
	return y*r.Size + x
}

// At returns the sample at (x, y).
func (r *Raster) At(x, y int) float64 {
	return r.Values[r.Index(x, y)]
}

// Set stores v at (x, y).
func (r *Raster) Set(x, y int, v float64) {
	r.Values[r.Index(x, y)] = v
}

// Checksum fingerprints the raster bit for bit.
func (r *Raster) Checksum() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(r.Size))
	_, _ = d.Write(buf[:])
	for _, v := range r.Values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// ChunkRasterData holds the three noise rasters computed for one chunk.
// It is never mutated after construction.
type ChunkRasterData struct {
	Coord       ChunkCoord
	Height      *Raster
	Temperature *Raster
	Humidity    *Raster
}

// Sample returns (height, temperature, humidity) at local cell (x, y).
func (d *ChunkRasterData) Sample(x, y int) (h, t, m float64) {
	return d.Height.At(x, y), d.Temperature.At(x, y), d.Humidity.At(x, y)
}

// Size returns the edge length of the rasters.
func (d *ChunkRasterData) Size() int {
	if d == nil || d.Height == nil {
		return 0
	}
	return d.Height.Size
}

// RasterSource produces the noise rasters for a chunk. Implementations must be
// safe for concurrent use.
type RasterSource interface {
	Rasters(ctx context.Context, coord ChunkCoord) (*ChunkRasterData, error)
}

// Rasters computes the three rasters of coord concurrently.
func (s Settings) Rasters(ctx context.Context, coord ChunkCoord) (*ChunkRasterData, error) {
	data := &ChunkRasterData{Coord: coord}
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.axes(coord) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			*job.dst(data) = GenerateNoiseMap(s.ChunkSize, job.seed, job.params, job.offset)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
