package world

// TileCell is one painted cell of a chunk surface, in chunk-local coordinates.
type TileCell struct {
	X, Y int
	Tile TileID
}

// Surface is the drawable representation of one chunk.
type Surface interface {
	// SetTiles paints a batch of cells. Cells holding NoTile are left empty.
	SetTiles(cells []TileCell)
	SetVisible(visible bool)
	Visible() bool
	// Release frees the surface. It must not be used afterwards.
	Release()
}

// SurfaceFactory is the single world container that chunk surfaces live under.
type SurfaceFactory interface {
	NewSurface(coord ChunkCoord, chunkSize int) Surface
}
