package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/export"
	"github.com/san-kum/pendsim/internal/pendulum"
	"github.com/san-kum/pendsim/internal/storage"
	"github.com/san-kum/pendsim/internal/viz"
)

var (
	svgWidth  int
	svgHeight int
	svgFrame  bool
)

func loadRun(runID string) (*storage.RunMetadata, []storage.Record, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	records, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("run %s has no recorded states", runID)
	}
	return meta, records, nil
}

// plottable replaces infinities with NaN so asciigraph leaves a gap.
func plottable(data []float64) []float64 {
	for i, v := range data {
		if math.IsInf(v, 0) {
			data[i] = math.NaN()
		}
	}
	return data
}

func anyFinite(data []float64) bool {
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func column(records []storage.Record, idx int) []float64 {
	data := make([]float64, len(records))
	for i, r := range records {
		data[i] = r.Vector()[idx]
	}
	return data
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(records))

	for idx, caption := range []string{"a1 (rod 1 angle)", "a2 (rod 2 angle)", "v1 (rod 1 velocity)", "v2 (rod 2 velocity)"} {
		data := column(records, idx)
		if !anyFinite(data) {
			fmt.Printf("%s: no finite values\n\n", caption)
			continue
		}
		graph := asciigraph.Plot(plottable(data),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, records, err := loadRun(args[0])
	if err != nil {
		return err
	}

	out, closeOut, err := createOutput(outFile)
	if err != nil {
		return err
	}
	defer closeOut()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"tick", "a1", "a2", "v1", "v2", "x1", "y1", "x2", "y2"}); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{strconv.Itoa(r.Tick)}
		for _, v := range []float64{r.A1, r.A2, r.V1, r.V2, r.Bob1.X, r.Bob1.Y, r.Bob2.X, r.Bob2.Y} {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return closeOut()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRun(args[0])
	if err != nil {
		return err
	}

	out, closeOut, err := createOutput(outFile)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := storage.ExportJSON(out, *meta, records); err != nil {
		return err
	}
	return closeOut()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRun(args[0])
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = meta.ID + ".svg"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if svgFrame {
		params := meta.Params.Pendulum()
		last := records[len(records)-1]
		canvas := viz.NewCanvas(80, 40)
		snap := pendulum.Snapshot{Tick: uint64(last.Tick), Bob1: last.Bob1, Bob2: last.Bob2}
		r1, r2 := meta.Render.Radii(params)
		viz.DrawPendulum(canvas, viz.NewProjector(canvas, params), snap, r1, r2, nil)
		err = export.CanvasToSVG(f, canvas, 4)
	} else {
		points := make([]pendulum.Point, len(records))
		for i, r := range records {
			points[i] = r.Bob2
		}
		err = export.TrajectorySVG(f, points, svgWidth, svgHeight, "#00ffff")
	}
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, records, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s, %d samples\n\n", meta.Preset, len(records))

	a1 := column(records, 0)
	n := 1
	for n < len(a1) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, a1)

	ps := analysis.PowerSpectrum(padded)
	if len(ps) >= 4 && anyFinite(ps) {
		graph := asciigraph.Plot(plottable(ps[:len(ps)/4]),
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (a1)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	// Records may be thinned with --record-every, so convert to per tick.
	spacing := 1.0
	if len(records) > 1 {
		spacing = float64(records[1].Tick - records[0].Tick)
	}
	for idx, name := range []string{"a1", "a2"} {
		freq := analysis.DominantFrequency(column(records, idx)) / spacing
		fmt.Printf("dominant frequency %s: %.5f cycles/tick", name, freq)
		if freq > 0 {
			fmt.Printf(" (period %.1f ticks)", 1/freq)
		}
		fmt.Println()
	}

	states := make([]dynamo.State, len(records))
	for i, r := range records {
		states[i] = r.Vector()
	}

	portrait := analysis.PortraitFromStates(states, 0, 2)
	fmt.Println("\nphase portrait (a1 vs v1):")
	fmt.Print(analysis.PhasePortraitToASCII(portrait.Points, 60, 16))

	section := analysis.PoincareSection(states, 0, 0, 1, 3)
	fmt.Printf("\npoincare section (a1 = 0 upward, a2 vs v2): %d crossings\n", len(section))
	if len(section) > 0 {
		fmt.Print(analysis.PhasePortraitToASCII(section, 60, 16))
	}

	return nil
}
