// Command preview renders the noise rasters and biome map of one chunk to PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tileworld/internal/config"
	"tileworld/internal/logging"
	"tileworld/internal/preview"
	"tileworld/internal/world"

	"github.com/xlab/closer"
)

type options struct {
	worldFile string
	coord     world.ChunkCoord
	mode      string
	scale     int
	out       string
}

func main() {
	var opt options
	flag.StringVar(&opt.worldFile, "world", "", "world definition (TOML); built-in when empty")
	flag.IntVar(&opt.coord.X, "x", 0, "chunk x")
	flag.IntVar(&opt.coord.Y, "y", 0, "chunk y")
	flag.StringVar(&opt.mode, "mode", "all", "height, temperature, humidity, biome or all")
	flag.IntVar(&opt.scale, "scale", 4, "pixels per tile")
	flag.StringVar(&opt.out, "out", "chunk.png", "output file; with -mode all the mode name is appended")
	flag.Parse()

	// Partially written files are removed on interrupt.
	var inFlight string
	closer.Bind(func() {
		if inFlight != "" {
			_ = os.Remove(inFlight)
		}
	})

	if err := run(opt, &inFlight); err != nil {
		if inFlight != "" {
			_ = os.Remove(inFlight)
		}
		fmt.Fprintln(os.Stderr, "preview:", err)
		os.Exit(1)
	}
	closer.Close()
}

func run(opt options, inFlight *string) error {
	conf, err := config.Load(opt.worldFile, slog.Default())
	if err != nil {
		return err
	}
	log := logging.Init(conf.Logging.Level, conf.Logging.Format).With("component", "preview")

	modes, err := parseModes(opt.mode)
	if err != nil {
		return err
	}
	classifier, err := conf.Classifier()
	if err != nil {
		return err
	}

	data := conf.Settings.RastersSync(opt.coord)
	for _, m := range modes {
		img, err := preview.Render(m, data, classifier, opt.scale)
		if err != nil {
			return err
		}
		path := opt.out
		if len(modes) > 1 {
			path = withSuffix(path, m.String())
		}
		tmp := path + ".tmp"
		*inFlight = tmp
		if err := writePNG(tmp, img); err != nil {
			return err
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("rename %s: %w", tmp, err)
		}
		*inFlight = ""
		log.Info("wrote preview",
			"chunk", opt.coord.String(),
			"mode", m.String(),
			"path", path,
			"height_checksum", fmt.Sprintf("%016x", data.Height.Checksum()),
		)
	}
	return nil
}

func parseModes(s string) ([]preview.DrawMode, error) {
	if strings.EqualFold(s, "all") {
		return []preview.DrawMode{preview.HeightMap, preview.TemperatureMap, preview.HumidityMap, preview.BiomeMap}, nil
	}
	m, err := preview.ParseDrawMode(s)
	if err != nil {
		return nil, err
	}
	return []preview.DrawMode{m}, nil
}

func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + suffix + ext
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
