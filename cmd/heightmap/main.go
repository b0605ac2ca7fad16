package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"skyduel.io/internal/logging"
	"skyduel.io/internal/sim/world/terrain/gen"
)

func main() {
	var (
		seed    = flag.Int64("seed", 1337, "terrain seed")
		centerX = flag.Float64("x", 0, "world x at the image centre")
		centerZ = flag.Float64("z", 0, "world z at the image centre")
		size    = flag.Int("size", 256, "samples along each edge")
		step    = flag.Float64("step", 16, "world units between samples")
		format  = flag.String("format", "pgm", "pgm or csv")
		out     = flag.String("out", "", "output path (default: stdout)")
	)
	flag.Parse()

	logger := logging.New("heightmap", logging.Options{Console: true, Level: "warn"})

	s, err := gen.CoerceSeed(*seed)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	if *size <= 0 || *size > 8192 || !(*step > 0) {
		logger.Fatal().Int("size", *size).Float64("step", *step).Msg("bad grid")
	}
	g := sample(gen.NewSampler(s), *centerX, *centerZ, *size, *step)

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Fatal().Err(err).Msg("create output")
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	switch strings.ToLower(*format) {
	case "pgm":
		err = writePGM(bw, g)
	case "csv":
		err = writeCSV(bw, g)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("write")
	}
}

type grid struct {
	size     int
	heights  []float64
	water    []bool
	min, max float64
}

// sample reads a size x size grid of ground heights centred on (cx, cz),
// row-major in z.
func sample(s *gen.Sampler, cx, cz float64, size int, step float64) grid {
	g := grid{
		size:    size,
		heights: make([]float64, size*size),
		water:   make([]bool, size*size),
		min:     math.Inf(1),
		max:     math.Inf(-1),
	}
	half := float64(size-1) * step / 2
	for zi := 0; zi < size; zi++ {
		z := cz - half + float64(zi)*step
		for xi := 0; xi < size; xi++ {
			x := cx - half + float64(xi)*step
			h := s.HeightAt(x, z)
			i := xi + zi*size
			g.heights[i] = h
			g.water[i] = s.IsWaterAt(x, z)
			g.min = math.Min(g.min, h)
			g.max = math.Max(g.max, h)
		}
	}
	return g
}

// writePGM writes a binary 8-bit greymap scaled between the grid's min and
// max heights. Water samples are black.
func writePGM(w io.Writer, g grid) error {
	if _, err := fmt.Fprintf(w, "P5\n%d %d\n255\n", g.size, g.size); err != nil {
		return err
	}
	span := g.max - g.min
	row := make([]byte, g.size)
	for zi := 0; zi < g.size; zi++ {
		for xi := 0; xi < g.size; xi++ {
			i := xi + zi*g.size
			if g.water[i] {
				row[xi] = 0
				continue
			}
			v := 1.0
			if span > 0 {
				v = (g.heights[i] - g.min) / span
			}
			row[xi] = byte(1 + math.Round(v*254))
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(w io.Writer, g grid) error {
	cw := csv.NewWriter(w)
	rec := make([]string, g.size)
	for zi := 0; zi < g.size; zi++ {
		for xi := 0; xi < g.size; xi++ {
			rec[xi] = strconv.FormatFloat(g.heights[xi+zi*g.size], 'f', 3, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
