package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances x0 for cfg.Ticks fixed steps. Non-finite states are carried
// forward unless cfg.ValidateState is set, in which case the run stops and
// the failure is recorded in Result.Errors.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	every := cfg.RecordEvery
	if every <= 0 {
		every = 1
	}

	result := &Result{
		States:  make([]State, 0, cfg.Ticks/every+2),
		Ticks:   make([]int, 0, cfg.Ticks/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	result.States = append(result.States, x.Clone())
	result.Ticks = append(result.Ticks, 0)

	initialEnergy := s.computeEnergy(x)

	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, i)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, i)
		}

		newX := s.integrator.Step(s.sys, x, float64(i)*cfg.Dt, cfg.Dt)

		if cfg.ValidateState && !newX.IsValid() {
			result.Errors = append(result.Errors, &SimulationError{
				Tick:    i + 1,
				State:   newX,
				Wrapped: fmt.Errorf("tick %d: %w", i+1, ErrInvalidState),
			})
			break
		}

		x = newX
		result.StepsTaken++

		if result.StepsTaken%every == 0 {
			result.States = append(result.States, x.Clone())
			result.Ticks = append(result.Ticks, result.StepsTaken)
		}
	}

	// Metrics see every state from tick 0 through the last accepted step.
	// A validation stop leaves x at a tick that was already observed.
	if len(result.Errors) == 0 {
		for _, m := range s.metrics {
			m.Observe(x, result.StepsTaken)
		}
	}

	// The final state is always recorded, even off the RecordEvery grid.
	if result.Ticks[len(result.Ticks)-1] != result.StepsTaken {
		result.States = append(result.States, x.Clone())
		result.Ticks = append(result.Ticks, result.StepsTaken)
	}

	finalEnergy := s.computeEnergy(x)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback steps until the callback returns false, the context is
// cancelled or cfg.Ticks is reached. Nothing is recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, int) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(x, i) {
			return nil
		}

		x = s.integrator.Step(s.sys, x, float64(i)*cfg.Dt, cfg.Dt)

		if cfg.ValidateState && !x.IsValid() {
			return &SimulationError{Tick: i + 1, State: x, Wrapped: ErrInvalidState}
		}
	}

	return nil
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Ticks < 0 {
		return fmt.Errorf("%w: ticks must not be negative, got %d", ErrInvalidConfig, cfg.Ticks)
	}
	if len(x0) != s.sys.StateDim() {
		return fmt.Errorf("%w: state has %d entries, system expects %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}
	return nil
}

func (s *Simulator) computeEnergy(x State) float64 {
	if h, ok := s.sys.(Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}
