package world

import (
	"sync"

	"github.com/google/uuid"
)

// MemoryLayer is a headless SurfaceFactory that keeps painted tiles in memory.
// It is used by the headless walker and by tests.
type MemoryLayer struct {
	mu         sync.Mutex
	live       map[ChunkCoord]*MemorySurface
	created    int
	released   int
	collisions int
}

// NewMemoryLayer creates an empty layer.
func NewMemoryLayer() *MemoryLayer {
	return &MemoryLayer{live: make(map[ChunkCoord]*MemorySurface)}
}

// NewSurface implements SurfaceFactory.
func (l *MemoryLayer) NewSurface(coord ChunkCoord, chunkSize int) Surface {
	s := &MemorySurface{
		ID:      uuid.New(),
		Coord:   coord,
		Size:    chunkSize,
		tiles:   make([]TileID, chunkSize*chunkSize),
		visible: true,
		layer:   l,
	}
	l.mu.Lock()
	if _, ok := l.live[coord]; ok {
		l.collisions++
	}
	l.live[coord] = s
	l.created++
	l.mu.Unlock()
	return s
}

// Surface returns the live surface of coord, if any.
func (l *MemoryLayer) Surface(coord ChunkCoord) (*MemorySurface, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.live[coord]
	return s, ok
}

// Live returns the number of surfaces not yet released.
func (l *MemoryLayer) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// Counts returns how many surfaces were created and released so far.
func (l *MemoryLayer) Counts() (created, released int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.created, l.released
}

// Collisions counts surfaces created for a coordinate that already had a live one.
func (l *MemoryLayer) Collisions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.collisions
}

func (l *MemoryLayer) release(s *MemorySurface) {
	l.mu.Lock()
	if cur, ok := l.live[s.Coord]; ok && cur == s {
		delete(l.live, s.Coord)
	}
	l.released++
	l.mu.Unlock()
}

// MemorySurface is the surface type produced by MemoryLayer.
type MemorySurface struct {
	ID    uuid.UUID
	Coord ChunkCoord
	Size  int

	mu       sync.Mutex
	tiles    []TileID
	visible  bool
	released bool
	batches  int
	layer    *MemoryLayer
}

// SetTiles implements Surface.
func (s *MemorySurface) SetTiles(cells []TileCell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	for _, c := range cells {
		if c.X < 0 || c.Y < 0 || c.X >= s.Size || c.Y >= s.Size {
			continue
		}
		s.tiles[c.Y*s.Size+c.X] = c.Tile
	}
	s.batches++
}

// SetVisible implements Surface.
func (s *MemorySurface) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
}

// Visible implements Surface.
func (s *MemorySurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Release implements Surface.
func (s *MemorySurface) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.tiles = nil
	s.mu.Unlock()
	s.layer.release(s)
}

// Tile returns the painted tile at local (x, y).
func (s *MemorySurface) Tile(x, y int) TileID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || x < 0 || y < 0 || x >= s.Size || y >= s.Size {
		return NoTile
	}
	return s.tiles[y*s.Size+x]
}

// Batches returns how many SetTiles calls the surface received.
func (s *MemorySurface) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

// Released reports whether Release was called.
func (s *MemorySurface) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
