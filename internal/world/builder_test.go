package world

import (
	"testing"
)

// constRasters returns rasters of the given size filled with constant samples.
func constRasters(coord ChunkCoord, size int, h, t, m float64) *ChunkRasterData {
	fill := func(v float64) *Raster {
		r := NewRaster(size)
		for i := range r.Values {
			r.Values[i] = v
		}
		return r
	}
	return &ChunkRasterData{Coord: coord, Height: fill(h), Temperature: fill(t), Humidity: fill(m)}
}

// TestBuildTilesUsesBiomeTerrain verifies cells map through biome and height lookup
func TestBuildTilesUsesBiomeTerrain(t *testing.T) {
	biome := &Biome{Name: "land", Terrain: terrain(0.3, 0.7)}
	classifier, err := NewClassifier([]BiomeRule{{Biome: biome}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(classifier, 4, nil)

	data := constRasters(ChunkCoord{}, 4, 0.5, 0.5, 0.5)
	data.Height.Set(0, 0, 0.1)
	data.Height.Set(3, 3, 0.7)

	tiles := b.BuildTiles(data)
	if len(tiles) != 16 {
		t.Fatalf("got %d tiles, want 16", len(tiles))
	}
	if tiles[0] != 1 {
		t.Errorf("tile (0,0) = %d, want 1", tiles[0])
	}
	if tiles[1] != 2 {
		t.Errorf("tile (1,0) = %d, want 2", tiles[1])
	}
	if tiles[15] != 2 {
		t.Errorf("tile (3,3) = %d, want 2", tiles[15])
	}
}

// TestBuildTilesFallbacks verifies the default biome and NoTile fallbacks
func TestBuildTilesFallbacks(t *testing.T) {
	def := &Biome{Name: "default", Terrain: terrain(0.5)}
	classifier, _ := NewClassifier(nil, def)
	b := NewBuilder(classifier, 2, nil)

	// Above every ceiling of the default biome: last rule.
	for i, tile := range b.BuildTiles(constRasters(ChunkCoord{}, 2, 0.9, 0, 0)) {
		if tile != 1 {
			t.Errorf("cell %d = %d, want last terrain tile 1", i, tile)
		}
	}

	empty, _ := NewClassifier(nil, nil)
	b = NewBuilder(empty, 2, nil)
	for i, tile := range b.BuildTiles(constRasters(ChunkCoord{}, 2, 0.5, 0.5, 0.5)) {
		if tile != NoTile {
			t.Errorf("cell %d = %d, want NoTile without any biome", i, tile)
		}
	}
}

// TestBuildCreatesAndPaintsSurface verifies one surface per chunk painted in a single batch
func TestBuildCreatesAndPaintsSurface(t *testing.T) {
	land := &Biome{Name: "land", Terrain: terrain(1)}
	classifier, _ := NewClassifier([]BiomeRule{{Biome: land}}, nil)
	layer := NewMemoryLayer()
	b := NewBuilder(classifier, 3, layer)

	coord := ChunkCoord{X: -2, Y: 5}
	rec := b.Build(coord, constRasters(coord, 3, 0.4, 0.4, 0.4))

	if rec.State != StateActive {
		t.Errorf("new record state = %v, want active", rec.State)
	}
	s, ok := layer.Surface(coord)
	if !ok {
		t.Fatal("no surface created for the chunk")
	}
	if s.Batches() != 1 {
		t.Errorf("surface painted in %d batches, want 1", s.Batches())
	}
	if s.Tile(2, 1) != 1 || rec.Tile(2, 1) != 1 {
		t.Errorf("tile (2,1): surface %d, record %d, want 1", s.Tile(2, 1), rec.Tile(2, 1))
	}

	b.Disable(rec)
	if s.Visible() || rec.State != StateCached {
		t.Error("Disable should hide the surface and mark the record cached")
	}
	if rec.Tiles == nil {
		t.Error("Disable must keep tile data")
	}
	b.Enable(rec)
	if !s.Visible() || rec.State != StateActive {
		t.Error("Enable should show the surface and mark the record active")
	}

	b.Destroy(rec)
	if !s.Released() || layer.Live() != 0 {
		t.Error("Destroy should release the surface")
	}
	if rec.Tiles != nil || rec.Surface() != nil {
		t.Error("Destroy should drop tile data and the surface reference")
	}
}

// TestChunkRecordChecksum verifies equal tiles hash equal
func TestChunkRecordChecksum(t *testing.T) {
	a := &ChunkRecord{Size: 2, Tiles: []TileID{1, 2, 3, 4}}
	b := &ChunkRecord{Size: 2, Tiles: []TileID{1, 2, 3, 4}}
	c := &ChunkRecord{Size: 2, Tiles: []TileID{1, 2, 4, 3}}
	if a.Checksum() != b.Checksum() {
		t.Error("identical tile rasters should have identical checksums")
	}
	if a.Checksum() == c.Checksum() {
		t.Error("different tile rasters should have different checksums")
	}
}
