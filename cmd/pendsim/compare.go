package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/experiment"
)

var epsilon float64

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	names := args
	if len(names) == 0 {
		names = registry.ListIntegrators()
	}

	jobs := make([]dynamo.Job, 0, len(names))
	for _, name := range names {
		run := *cfg
		run.Integrator = name
		exp, err := experiment.New(&run, registry, experiment.Options{})
		if err != nil {
			return err
		}
		jobs = append(jobs, exp.Job(name))
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing integrators for %s (%d ticks)\n\n", cfg.Name, cfg.Ticks)
	start := time.Now()
	results := dynamo.RunBatch(ctx, jobs)
	logger.Debug("batch finished", "jobs", len(jobs), "elapsed", time.Since(start))

	fmt.Printf("%-14s  %-12s  %-12s  %-12s  %-8s\n", "integrator", "final_a1", "final_a2", "energy_drift", "finite")
	fmt.Println(strings.Repeat("-", 66))

	series := make([][]float64, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-14s  error: %v\n", r.Name, r.Err)
			continue
		}
		final := r.Result.Final()
		fmt.Printf("%-14s  %12.6f  %12.6f  %12.3e  %8.3f\n",
			r.Name, final[0], final[1], r.Result.Metrics["energy_drift"], r.Result.Metrics["finite"])

		a1 := make([]float64, len(r.Result.States))
		for i, x := range r.Result.States {
			a1[i] = x[0]
			if math.IsInf(a1[i], 0) {
				a1[i] = math.NaN()
			}
		}
		if anyFinite(a1) {
			series = append(series, a1)
		}
	}

	if len(series) > 0 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(series,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
			asciigraph.Caption("a1 by integrator ("+strings.Join(names, ", ")+")"),
		))
	}

	return nil
}

func runChaos(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, registry, experiment.Options{})
	if err != nil {
		return err
	}
	sys := exp.System()
	pc := cfg.PendulumConfig()
	x0 := dynamo.State{pc.A1, pc.A2, pc.V1, pc.V2}

	seps := analysis.Divergence(sys, integ, x0, epsilon, 1.0, cfg.Ticks)
	logSeps := make([]float64, len(seps))
	for i, s := range seps {
		logSeps[i] = math.Log10(s)
		if math.IsInf(logSeps[i], 0) {
			logSeps[i] = math.NaN()
		}
	}

	fmt.Printf("divergence for %s (eps=%g, %d ticks)\n\n", cfg.Name, epsilon, cfg.Ticks)
	if anyFinite(logSeps) {
		fmt.Println(asciigraph.Plot(logSeps,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("log10 separation"),
		))
		fmt.Println()
	}

	lambda := analysis.LyapunovEstimate(sys, integ, x0, epsilon, 1.0, cfg.Ticks)
	fmt.Printf("lyapunov estimate: %.6f per tick\n", lambda)
	if lambda > 0 {
		fmt.Println("trajectory is sensitive to initial conditions")
	}

	return nil
}
