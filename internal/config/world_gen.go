package config

import (
	"log/slog"

	"tileworld/internal/world"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml"
)

type noiseFile struct {
	Height      axisFile `toml:"height"`
	Temperature axisFile `toml:"temperature"`
	Humidity    axisFile `toml:"humidity"`
}

var axisFloatKeys = []string{"scale", "persistence", "lacunarity", "amplitude_factor", "offset"}

// axisFile is one [noise.<axis>] table.
type axisFile struct {
	Scale           float64   `toml:"scale"`
	Octaves         int       `toml:"octaves"`
	Persistence     float64   `toml:"persistence"`
	Lacunarity      float64   `toml:"lacunarity"`
	AmplitudeFactor float64   `toml:"amplitude_factor"`
	Basis           string    `toml:"basis"`
	Offset          []float64 `toml:"offset"`
}

func (a *axisFile) fillDefaults(tree *toml.Tree, prefix string, def world.NoiseParams) {
	setDefault(tree, prefix+".scale", &a.Scale, def.Scale)
	setDefault(tree, prefix+".octaves", &a.Octaves, def.Octaves)
	setDefault(tree, prefix+".persistence", &a.Persistence, def.Persistence)
	setDefault(tree, prefix+".lacunarity", &a.Lacunarity, def.Lacunarity)
	setDefault(tree, prefix+".amplitude_factor", &a.AmplitudeFactor, def.AmplitudeFactor)
	setDefault(tree, prefix+".basis", &a.Basis, string(def.Basis))
}

// axis converts the table into clamped noise settings, logging every clamp.
func (a axisFile) axis(name string, log *slog.Logger) world.NoiseAxis {
	params := world.NoiseParams{
		Scale:           a.Scale,
		Octaves:         a.Octaves,
		Persistence:     a.Persistence,
		Lacunarity:      a.Lacunarity,
		AmplitudeFactor: a.AmplitudeFactor,
		Basis:           world.Basis(a.Basis),
	}
	clamped := params.Clamped()
	if clamped != params {
		log.Warn("noise parameters clamped",
			"axis", name,
			"configured", params,
			"used", clamped,
		)
	}

	var offset mgl64.Vec2
	switch len(a.Offset) {
	case 0:
	case 2:
		offset = mgl64.Vec2{a.Offset[0], a.Offset[1]}
	default:
		log.Warn("noise offset needs two components, ignoring it", "axis", name, "offset", a.Offset)
	}
	return world.NoiseAxis{Params: clamped, Offset: offset}
}
