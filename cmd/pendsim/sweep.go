package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/optim"
)

var (
	sweepParams []string
	sweepMetric string
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over parameters, minimizing a metric",
		Example: "  pendsim sweep --param a1=0.1:3:8 --param m2=1:20:4 --metric energy_drift\n" +
			"  pendsim sweep --param a2=0:3.1:16 --metric stability --ticks 2000",
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	addPendulumFlags(cmd)
	cmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=min:max:n (a1 a2 v1 v2 m1 m2 r1 r2)")
	cmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to minimize")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, spec := range sweepParams {
		name, rng, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("bad --param %q, want name=min:max:n", spec)
		}
		if _, err := base.Field(name); err != nil {
			return err
		}
		values, err := optim.ParseRange(rng)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	registry := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		for name, v := range params {
			dst, err := cfg.Field(name)
			if err != nil {
				return nil, err
			}
			*dst = v
		}
		return experiment.New(&cfg, registry, experiment.Options{RecordEvery: cfg.Ticks + 1})
	}

	ctx, cancel := signalContext()
	defer cancel()

	grid := optim.NewGridSearch(names, ranges)
	logger.Info("sweep started", "cells", len(grid.Cells()), "metric", sweepMetric)
	best, points, err := grid.Search(ctx, build, sweepMetric)

	sort.SliceStable(points, func(i, j int) bool {
		vi, vj := points[i].Value, points[j].Value
		if math.IsNaN(vi) {
			return false
		}
		return math.IsNaN(vj) || vi < vj
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for _, p := range points {
		cols := make([]string, 0, len(names)+1)
		for _, name := range names {
			cols = append(cols, fmt.Sprintf("%.4g", p.Params[name]))
		}
		if p.Err != nil {
			cols = append(cols, "error: "+p.Err.Error())
		} else {
			cols = append(cols, fmt.Sprintf("%.4g", p.Value))
		}
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at", sweepMetric, best.Value)
	for _, k := range best.SortedKeys() {
		fmt.Printf(" %s=%.4g", k, best.Params[k])
	}
	fmt.Println()
	return nil
}
