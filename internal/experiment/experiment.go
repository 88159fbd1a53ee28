package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/pendulum"
	"github.com/san-kum/pendsim/internal/storage"
)

// Options tune how a run is recorded, not what is simulated.
type Options struct {
	RecordEvery   int
	ValidateState bool
}

// Experiment is one configured pendulum run: a system, an integrator and the
// default metric set.
type Experiment struct {
	cfg       *config.Config
	opts      Options
	sys       *pendulum.System
	simulator *dynamo.Simulator
}

func New(cfg *config.Config, reg *Registry, opts Options) (*Experiment, error) {
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}

	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	sys := pendulum.NewSystem(cfg.Params())
	simulator := dynamo.New(sys, integ)
	for _, m := range reg.DefaultMetrics(sys) {
		simulator.AddMetric(m)
	}

	return &Experiment{cfg: cfg, opts: opts, sys: sys, simulator: simulator}, nil
}

func (e *Experiment) initialState() dynamo.State {
	pc := e.cfg.PendulumConfig()
	return dynamo.State{pc.A1, pc.A2, pc.V1, pc.V2}
}

func (e *Experiment) simConfig() dynamo.Config {
	sc := dynamo.DefaultConfig()
	sc.Ticks = e.cfg.Ticks
	sc.ValidateState = e.opts.ValidateState
	if e.opts.RecordEvery > 0 {
		sc.RecordEvery = e.opts.RecordEvery
	}
	return sc
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not set up")
	}
	return e.simulator.Run(ctx, e.initialState(), e.simConfig())
}

// Job packages the experiment for dynamo.RunBatch.
func (e *Experiment) Job(name string) dynamo.Job {
	return dynamo.Job{
		Name:      name,
		Simulator: e.simulator,
		X0:        e.initialState(),
		Config:    e.simConfig(),
	}
}

// StorageRun returns the storage description of this experiment.
func (e *Experiment) StorageRun() storage.Run {
	name := e.cfg.Name
	if name == "" {
		name = "custom"
	}
	r1, r2 := e.cfg.Radii()
	return storage.Run{
		Preset:     name,
		Integrator: e.cfg.Integrator,
		Config:     e.cfg.PendulumConfig(),
		Render:     storage.Render{Radius1: storage.Number(r1), Radius2: storage.Number(r2)},
	}
}

func (e *Experiment) System() *pendulum.System { return e.sys }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *dynamo.Simulator {
	return e.simulator
}
