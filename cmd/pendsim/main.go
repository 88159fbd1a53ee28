package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/config"
)

var (
	dataDir  string
	logLevel string

	preset      string
	configFile  string
	ticks       int
	integrator  string
	a1, a2      float64
	v1, v2      float64
	m1, m2      float64
	r1, r2      float64
	recordEvery int
	validate    bool

	outFile string
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// main registers the pendsim commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "pendsim",
		Short:         "double pendulum simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pendsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addPendulumFlags(runCmd)
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "store every n-th tick")
	runCmd.Flags().BoolVar(&validate, "validate", false, "stop the run at the first non-finite state")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot angles and velocities of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run states to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render the bob-2 trajectory of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")
	svgCmd.Flags().BoolVar(&svgFrame, "frame", false, "render the final frame as braille dots instead")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and phase portrait of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the pendulum with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addPendulumFlags(liveCmd)
	liveCmd.Flags().IntVar(&tickHz, "tick-hz", 0, "simulation ticks per second (default from config)")
	liveCmd.Flags().IntVar(&frameRate, "fps", 0, "frames per second (default from config)")
	liveCmd.Flags().StringVar(&theme, "theme", "classic", "color theme")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the pendulum to websocket clients",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addPendulumFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&tickHz, "tick-hz", 0, "simulation ticks per second (default from config)")
	serveCmd.Flags().IntVar(&broadcastHz, "broadcast-hz", 20, "state broadcasts per second")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same configuration",
		RunE:  compareIntegrators,
	}
	addPendulumFlags(compareCmd)

	chaosCmd := &cobra.Command{
		Use:   "chaos",
		Short: "trajectory divergence and Lyapunov estimate",
		Args:  cobra.NoArgs,
		RunE:  runChaos,
	}
	addPendulumFlags(chaosCmd)
	chaosCmd.Flags().Float64Var(&epsilon, "eps", 1e-8, "initial perturbation of a1")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, svgCmd, analyzeCmd,
		liveCmd, serveCmd, compareCmd, chaosCmd, presetsCmd, newSweepCmd(),
		newScenarioCmd(), newMonteCarloCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return nil
}

func addPendulumFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "reference", "preset configuration")
	f.StringVar(&configFile, "config", "", "config file path (yaml), applied over the preset")
	f.IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	f.Float64Var(&a1, "a1", 0, "initial angle of rod 1")
	f.Float64Var(&a2, "a2", 0, "initial angle of rod 2")
	f.Float64Var(&v1, "v1", 0, "initial angular velocity of rod 1")
	f.Float64Var(&v2, "v2", 0, "initial angular velocity of rod 2")
	f.Float64Var(&m1, "m1", 0, "mass of bob 1")
	f.Float64Var(&m2, "m2", 0, "mass of bob 2")
	f.Float64Var(&r1, "r1", 0, "length of rod 1")
	f.Float64Var(&r2, "r2", 0, "length of rod 2")
}

// resolveConfig layers the preset, then the config file, then any flag the
// user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.GetPreset(preset)
	if err != nil {
		return nil, err
	}

	if configFile != "" {
		cfg, err = config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		logger.Debug("config loaded", "path", configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	for _, name := range config.FieldNames {
		if !flags.Changed(name) {
			continue
		}
		dst, err := cfg.Field(name)
		if err != nil {
			return nil, err
		}
		*dst, _ = flags.GetFloat64(name)
	}

	if err := cfg.Validate(false); err != nil {
		return nil, err
	}
	if err := cfg.Params().Validate(); err != nil {
		logger.Warn("degenerate pendulum parameters, results may not be finite", "err", err)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func createOutput(path string) (*os.File, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
