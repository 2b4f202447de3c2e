// Package preview renders debug images of a chunk's noise rasters and biome map.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"tileworld/internal/world"

	"golang.org/x/image/draw"
)

// DrawMode selects what a preview image shows.
type DrawMode int

const (
	HeightMap DrawMode = iota
	TemperatureMap
	HumidityMap
	BiomeMap
	drawModeCount
)

var modeNames = [...]string{"height", "temperature", "humidity", "biome"}

func (m DrawMode) String() string {
	if m < 0 || m >= drawModeCount {
		return fmt.Sprintf("DrawMode(%d)", int(m))
	}
	return modeNames[m]
}

// Next cycles to the following mode.
func (m DrawMode) Next() DrawMode {
	return (m + 1) % drawModeCount
}

// ParseDrawMode accepts the names printed by String.
func ParseDrawMode(s string) (DrawMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if s == name {
			return DrawMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown draw mode %q", s)
}

type stop struct {
	at float64
	c  color.RGBA
}

// gradient interpolates linearly between evenly spaced stops.
type gradient []stop

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}

	temperatureGradient = gradient{
		{0, color.RGBA{0, 0, 255, 255}},
		{0.25, color.RGBA{0, 255, 255, 255}},
		{0.5, color.RGBA{0, 255, 0, 255}},
		{0.75, color.RGBA{255, 235, 4, 255}},
		{1, color.RGBA{255, 0, 0, 255}},
	}
	humidityGradient = gradient{
		{0, color.RGBA{153, 102, 51, 255}},
		{0.25, color.RGBA{255, 235, 4, 255}},
		{0.5, color.RGBA{0, 255, 0, 255}},
		{0.75, color.RGBA{51, 153, 255, 255}},
		{1, color.RGBA{0, 0, 255, 255}},
	}
)

func (g gradient) at(v float64) color.RGBA {
	if v <= g[0].at {
		return g[0].c
	}
	for i := 1; i < len(g); i++ {
		if v < g[i].at {
			a, b := g[i-1], g[i]
			return lerp(a.c, b.c, (v-a.at)/(b.at-a.at))
		}
	}
	return g[len(g)-1].c
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	t = min(max(t, 0), 1)
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

// Colors returns the per-cell colors of data for mode, row-major.
// BiomeMap needs a classifier; the other modes ignore it.
func Colors(mode DrawMode, data *world.ChunkRasterData, classifier *world.Classifier) ([]color.RGBA, error) {
	size := data.Size()
	var raster *world.Raster
	var shade func(float64) color.RGBA

	switch mode {
	case HeightMap:
		raster = data.Height
		shade = func(v float64) color.RGBA { return lerp(white, black, v) }
	case TemperatureMap:
		raster, shade = data.Temperature, temperatureGradient.at
	case HumidityMap:
		raster, shade = data.Humidity, humidityGradient.at
	case BiomeMap:
		if classifier == nil {
			return nil, fmt.Errorf("biome map needs a classifier")
		}
		return world.ColorMap(data, classifier), nil
	default:
		return nil, fmt.Errorf("unknown draw mode %d", int(mode))
	}

	colors := make([]color.RGBA, size*size)
	for i, v := range raster.Values {
		colors[i] = shade(v)
	}
	return colors, nil
}

// Render draws data in the given mode, each cell scaled to scale x scale pixels.
func Render(mode DrawMode, data *world.ChunkRasterData, classifier *world.Classifier, scale int) (*image.RGBA, error) {
	colors, err := Colors(mode, data, classifier)
	if err != nil {
		return nil, err
	}
	size := data.Size()
	src := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			src.SetRGBA(x, y, colors[y*size+x])
		}
	}
	if scale <= 1 {
		return src, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, size*scale, size*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
