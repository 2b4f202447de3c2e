package graphics

import (
	"image/color"
	"log/slog"

	"tileworld/internal/profiling"
	"tileworld/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/google/uuid"
)

// floats per vertex: x, y, r, g, b, a
const vertexStride = 6

// TileLayer is the OpenGL world container chunk surfaces live under.
// All methods must run on the thread owning the GL context.
type TileLayer struct {
	shader   *Shader
	palette  map[world.TileID]color.RGBA
	surfaces map[uuid.UUID]*TileSurface
	log      *slog.Logger
}

// NewTileLayer compiles the tile shader. A GL context must be current.
func NewTileLayer(palette map[world.TileID]color.RGBA, log *slog.Logger) (*TileLayer, error) {
	shader, err := NewShader(tileVertexShader, tileFragmentShader)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &TileLayer{
		shader:   shader,
		palette:  palette,
		surfaces: make(map[uuid.UUID]*TileSurface),
		log:      log.With("component", "tilemap"),
	}, nil
}

// NewSurface implements world.SurfaceFactory.
func (l *TileLayer) NewSurface(coord world.ChunkCoord, chunkSize int) world.Surface {
	s := &TileSurface{
		ID:      uuid.New(),
		Coord:   coord,
		size:    chunkSize,
		tiles:   make([]world.TileID, chunkSize*chunkSize),
		visible: true,
		layer:   l,
	}
	l.surfaces[s.ID] = s
	return s
}

// Live returns the number of unreleased surfaces.
func (l *TileLayer) Live() int {
	return len(l.surfaces)
}

// Draw renders every visible surface through cam.
func (l *TileLayer) Draw(cam *Camera2D) {
	defer profiling.Track("render.Tiles")()

	l.shader.Use()
	l.shader.SetMatrix4("uProj", cam.Projection())
	for _, s := range l.surfaces {
		if !s.visible || s.vertices == 0 {
			continue
		}
		l.shader.SetVector2("uOrigin", cam.Relative(s.Coord.Origin(s.size)))
		gl.BindVertexArray(s.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, s.vertices)
	}
	gl.BindVertexArray(0)
}

// Dispose releases every surface and the shader.
func (l *TileLayer) Dispose() {
	for _, s := range l.surfaces {
		s.Release()
	}
	l.shader.Delete()
}

func (l *TileLayer) color(tile world.TileID) color.RGBA {
	if c, ok := l.palette[tile]; ok {
		return c
	}
	return world.MissingColor
}

// TileSurface is one chunk's vertex buffer.
type TileSurface struct {
	ID    uuid.UUID
	Coord world.ChunkCoord

	size     int
	tiles    []world.TileID
	visible  bool
	released bool

	vao, vbo uint32
	vertices int32
	layer    *TileLayer
}

// SetTiles implements world.Surface. The whole chunk mesh is rebuilt and uploaded.
func (s *TileSurface) SetTiles(cells []world.TileCell) {
	if s.released {
		return
	}
	for _, c := range cells {
		if c.X < 0 || c.Y < 0 || c.X >= s.size || c.Y >= s.size {
			continue
		}
		s.tiles[c.Y*s.size+c.X] = c.Tile
	}

	verts := tileQuads(s.tiles, s.size, s.layer.color)
	if s.vao == 0 {
		gl.GenVertexArrays(1, &s.vao)
		gl.GenBuffers(1, &s.vbo)
		gl.BindVertexArray(s.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointer(0, 2, gl.FLOAT, false, vertexStride*4, gl.PtrOffset(0))
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointer(1, 4, gl.FLOAT, false, vertexStride*4, gl.PtrOffset(2*4))
	} else {
		gl.BindVertexArray(s.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	}
	if len(verts) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	s.vertices = int32(len(verts) / vertexStride)
}

// SetVisible implements world.Surface.
func (s *TileSurface) SetVisible(visible bool) { s.visible = visible }

// Visible implements world.Surface.
func (s *TileSurface) Visible() bool { return s.visible }

// Release implements world.Surface.
func (s *TileSurface) Release() {
	if s.released {
		return
	}
	s.released = true
	if s.vao != 0 {
		gl.DeleteVertexArrays(1, &s.vao)
	}
	if s.vbo != 0 {
		gl.DeleteBuffers(1, &s.vbo)
	}
	s.vertices = 0
	s.tiles = nil
	delete(s.layer.surfaces, s.ID)
}

// tileQuads emits two triangles per painted cell in chunk-local tile units.
func tileQuads(tiles []world.TileID, size int, colorOf func(world.TileID) color.RGBA) []float32 {
	painted := 0
	for _, t := range tiles {
		if t != world.NoTile {
			painted++
		}
	}
	verts := make([]float32, 0, painted*6*vertexStride)
	for i, t := range tiles {
		if t == world.NoTile {
			continue
		}
		x0, y0 := float32(i%size), float32(i/size)
		x1, y1 := x0+1, y0+1
		c := colorOf(t)
		r, g, b, a := float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255
		for _, p := range [6][2]float32{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y0}, {x1, y1}, {x0, y1}} {
			verts = append(verts, p[0], p[1], r, g, b, a)
		}
	}
	return verts
}
