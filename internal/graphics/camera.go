package graphics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Zoom limits in pixels per tile.
const (
	MinZoom = 0.25
	MaxZoom = 64.0
)

// Camera2D looks straight down at the tile plane.
type Camera2D struct {
	Center mgl64.Vec2
	// Zoom is the on-screen size of one tile in pixels.
	Zoom          float64
	Width, Height int
}

func NewCamera2D(width, height int) *Camera2D {
	return &Camera2D{Zoom: 4, Width: width, Height: height}
}

// Resize updates the viewport size in pixels.
func (c *Camera2D) Resize(width, height int) {
	c.Width, c.Height = max(width, 1), max(height, 1)
}

// ZoomBy multiplies the zoom by f within [MinZoom, MaxZoom].
func (c *Camera2D) ZoomBy(f float64) {
	c.Zoom = min(max(c.Zoom*f, MinZoom), MaxZoom)
}

// HalfExtent returns half the visible area in tiles.
func (c *Camera2D) HalfExtent() mgl64.Vec2 {
	return mgl64.Vec2{
		float64(c.Width) / (2 * c.Zoom),
		float64(c.Height) / (2 * c.Zoom),
	}
}

// Projection maps camera-relative tile coordinates to clip space. Geometry is
// positioned relative to Center before projection so float32 precision holds
// far from the origin.
func (c *Camera2D) Projection() mgl32.Mat4 {
	h := c.HalfExtent()
	return mgl32.Ortho2D(float32(-h.X()), float32(h.X()), float32(-h.Y()), float32(h.Y()))
}

// Relative returns p relative to the camera center.
func (c *Camera2D) Relative(p mgl64.Vec2) mgl32.Vec2 {
	d := p.Sub(c.Center)
	return mgl32.Vec2{float32(d.X()), float32(d.Y())}
}
