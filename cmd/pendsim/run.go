package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/storage"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), experiment.Options{
		RecordEvery:   recordEvery,
		ValidateState: validate,
	})
	if err != nil {
		return err
	}

	exp.GetSimulator().AddObserver(&progressLogger{total: cfg.Ticks})

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%s, %d ticks)...\n", cfg.Name, cfg.Integrator, cfg.Ticks)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run interrupted, saving partial result", "err", err, "steps", result.StepsTaken)
	}
	elapsed := time.Since(start)

	meta, err := st.Save(exp.StorageRun(), result)
	if err != nil {
		return err
	}
	logger.Info("run saved", "id", meta.ID, "dir", dataDir)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", meta.ID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}

	return nil
}

// progressLogger reports every tenth of a run at debug level.
type progressLogger struct {
	total int
}

func (p *progressLogger) OnStep(x dynamo.State, tick int) {
	step := p.total / 10
	if step == 0 || tick == 0 || tick%step != 0 {
		return
	}
	logger.Debug("progress", "tick", tick, "of", p.total, "finite", x.IsValid())
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTICKS\tINTEG\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.3g\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Integrator,
			float64(run.Metrics["energy_drift"]),
		)
	}

	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tA1\tA2\tV1\tV2\tR1\tR2\tM1\tM2")

	for _, name := range config.ListPresets() {
		cfg, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		s, p := cfg.InitState, cfg.Pendulum
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%g\t%g\t%g\t%g\n",
			name, s.A1, s.A2, s.V1, s.V2, p.R1, p.R2, p.M1, p.M2)
	}

	return w.Flush()
}
