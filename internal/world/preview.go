package world

import (
	"image/color"
)

// ColorMap returns the classification color of every cell of data, row-major.
// Cells whose biome is nil or has no terrain get MissingColor.
func ColorMap(data *ChunkRasterData, classifier *Classifier) []color.RGBA {
	size := data.Size()
	colors := make([]color.RGBA, size*size)
	for y := range size {
		for x := range size {
			h, t, m := data.Sample(x, y)
			colors[y*size+x] = classifier.Classify(h, t, m).ColorFor(h)
		}
	}
	return colors
}
