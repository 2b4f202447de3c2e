package world

import (
	"tileworld/internal/profiling"
)

// Builder turns noise rasters into tile rasters and owns chunk surfaces.
type Builder struct {
	classifier *Classifier
	chunkSize  int
	surfaces   SurfaceFactory
}

// NewBuilder creates a builder. surfaces may be nil for tile-only use.
func NewBuilder(classifier *Classifier, chunkSize int, surfaces SurfaceFactory) *Builder {
	return &Builder{classifier: classifier, chunkSize: max(chunkSize, 1), surfaces: surfaces}
}

// BuildTiles classifies every cell of data and looks up its tile.
// Cells of a nil biome or a biome without terrain become NoTile.
func (b *Builder) BuildTiles(data *ChunkRasterData) []TileID {
	size := b.chunkSize
	tiles := make([]TileID, size*size)
	if data.Size() < size {
		return tiles
	}
	for y := range size {
		for x := range size {
			h, t, m := data.Sample(x, y)
			biome := b.classifier.Classify(h, t, m)
			tiles[y*size+x] = biome.TileFor(h)
		}
	}
	return tiles
}

// Build creates the record for coord, creates its surface and paints it in one batch.
// The new record is Active.
func (b *Builder) Build(coord ChunkCoord, data *ChunkRasterData) *ChunkRecord {
	defer profiling.Track("world.Build")()

	rec := &ChunkRecord{
		Coord: coord,
		Size:  b.chunkSize,
		Tiles: b.BuildTiles(data),
		State: StateActive,
	}
	if b.surfaces == nil {
		return rec
	}

	rec.surface = b.surfaces.NewSurface(coord, b.chunkSize)
	cells := make([]TileCell, 0, len(rec.Tiles))
	for i, tile := range rec.Tiles {
		if tile == NoTile {
			continue
		}
		cells = append(cells, TileCell{X: i % b.chunkSize, Y: i / b.chunkSize, Tile: tile})
	}
	rec.surface.SetTiles(cells)
	return rec
}

// Enable shows the chunk and marks it Active.
func (b *Builder) Enable(rec *ChunkRecord) {
	rec.State = StateActive
	if rec.surface != nil && !rec.surface.Visible() {
		rec.surface.SetVisible(true)
	}
}

// Disable hides the chunk and marks it Cached. Tile data is kept.
func (b *Builder) Disable(rec *ChunkRecord) {
	rec.State = StateCached
	if rec.surface != nil && rec.surface.Visible() {
		rec.surface.SetVisible(false)
	}
}

// Destroy releases the surface and the tile data.
func (b *Builder) Destroy(rec *ChunkRecord) {
	if rec.surface != nil {
		rec.surface.Release()
		rec.surface = nil
	}
	rec.Tiles = nil
	rec.Rasters = nil
}
