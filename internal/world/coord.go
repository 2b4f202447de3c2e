package world

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkCoord identifies a chunk in the uniform chunk grid.
// Coordinates are assumed to fit in an int32.
type ChunkCoord struct {
	X, Y int
}

// ChunkAt returns the chunk containing the world-space position.
func ChunkAt(pos mgl64.Vec2, chunkSize int) ChunkCoord {
	size := max(chunkSize, 1)
	return ChunkCoord{
		X: floorDiv(int(math.Floor(pos.X())), size),
		Y: floorDiv(int(math.Floor(pos.Y())), size),
	}
}

// Chebyshev returns the max-axis distance between two chunk coordinates.
func (c ChunkCoord) Chebyshev(o ChunkCoord) int {
	return max(abs(c.X-o.X), abs(c.Y-o.Y))
}

// Origin returns the world-space position of the chunk's (0,0) cell.
func (c ChunkCoord) Origin(chunkSize int) mgl64.Vec2 {
	return mgl64.Vec2{float64(c.X * chunkSize), float64(c.Y * chunkSize)}
}

// Pack folds the coordinate into a single int64 key.
func (c ChunkCoord) Pack() int64 {
	return int64(uint64(uint32(int32(c.X)))<<32 | uint64(uint32(int32(c.Y))))
}

func (c ChunkCoord) String() string {
	return "(" + strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y) + ")"
}

// floorDiv performs floor division for potentially negative values.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
