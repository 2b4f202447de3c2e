package world

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ChunkState is the lifecycle tier of a tracked chunk.
type ChunkState uint8

const (
	StateActive ChunkState = iota
	StateCached
	StatePendingDestroy
)

func (s ChunkState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCached:
		return "cached"
	case StatePendingDestroy:
		return "pending-destroy"
	default:
		return "unknown"
	}
}

// ChunkRecord is a generated chunk: its tile raster and its surface.
type ChunkRecord struct {
	Coord ChunkCoord
	Size  int
	// Tiles is row-major, Size*Size entries.
	Tiles []TileID
	State ChunkState

	// Rasters is kept only when the manager retains raw noise for inspection.
	Rasters *ChunkRasterData

	surface Surface
}

// Tile returns the tile at local (x, y).
func (r *ChunkRecord) Tile(x, y int) TileID {
	if x < 0 || y < 0 || x >= r.Size || y >= r.Size {
		return NoTile
	}
	return r.Tiles[y*r.Size+x]
}

// Surface returns the chunk's drawable, nil once destroyed.
func (r *ChunkRecord) Surface() Surface {
	return r.surface
}

// Checksum fingerprints the tile raster.
func (r *ChunkRecord) Checksum() uint64 {
	d := xxhash.New()
	var buf [4]byte
	for _, t := range r.Tiles {
		binary.LittleEndian.PutUint32(buf[:], uint32(t))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
