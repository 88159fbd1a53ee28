package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

// decay is x' = -x written in position/velocity layout with a zero velocity
// half, so a plain Euler step exercises it.
type decay struct{}

func (d *decay) Derive(x State, t float64) State { return State{-x[0], 0} }
func (d *decay) StateDim() int                   { return 2 }

type eulerStep struct{}

func (e *eulerStep) Step(sys System, x State, t, dt float64) State {
	dx := sys.Derive(x, t)
	out := make(State, len(x))
	for i := range x {
		out[i] = x[i] + dt*dx[i]
	}
	return out
}

// blowup returns NaN after the first step.
type blowup struct{}

func (b *blowup) Derive(x State, t float64) State { return State{math.NaN(), 0} }
func (b *blowup) StateDim() int                   { return 2 }

func TestSimulatorRun(t *testing.T) {
	sim := New(&decay{}, &eulerStep{})

	cfg := Config{Ticks: 10, Dt: 0.1}
	result, err := sim.Run(context.Background(), State{1.0, 0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Ticks) != 11 {
		t.Errorf("expected 11 ticks, got %d", len(result.Ticks))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}

	final := result.Final()[0]
	expected := math.Exp(-1.0)
	if math.Abs(final-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, final)
	}
}

func TestSimulatorRecordEvery(t *testing.T) {
	sim := New(&decay{}, &eulerStep{})

	result, err := sim.Run(context.Background(), State{1.0, 0}, Config{Ticks: 10, Dt: 0.1, RecordEvery: 5})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []int{0, 5, 10}
	if len(result.Ticks) != len(want) {
		t.Fatalf("expected ticks %v, got %v", want, result.Ticks)
	}
	for i := range want {
		if result.Ticks[i] != want[i] {
			t.Errorf("tick[%d] = %d, want %d", i, result.Ticks[i], want[i])
		}
	}
}

func TestSimulatorRecordsFinalOffGrid(t *testing.T) {
	sim := New(&decay{}, &eulerStep{})

	result, err := sim.Run(context.Background(), State{1.0, 0}, Config{Ticks: 10, Dt: 0.1, RecordEvery: 3})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []int{0, 3, 6, 9, 10}
	if len(result.Ticks) != len(want) || len(result.States) != len(want) {
		t.Fatalf("expected ticks %v, got %v", want, result.Ticks)
	}
	for i := range want {
		if result.Ticks[i] != want[i] {
			t.Errorf("tick[%d] = %d, want %d", i, result.Ticks[i], want[i])
		}
	}

	full, err := New(&decay{}, &eulerStep{}).Run(context.Background(), State{1.0, 0}, Config{Ticks: 10, Dt: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if result.Final()[0] != full.Final()[0] {
		t.Errorf("final state %v differs from unthinned run %v", result.Final(), full.Final())
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&decay{}, &eulerStep{})

	tests := []struct {
		name string
		x0   State
		cfg  Config
		want error
	}{
		{"zero dt", State{1, 0}, Config{Dt: 0, Ticks: 10}, ErrInvalidConfig},
		{"negative dt", State{1, 0}, Config{Dt: -0.1, Ticks: 10}, ErrInvalidConfig},
		{"negative ticks", State{1, 0}, Config{Dt: 0.1, Ticks: -1}, ErrInvalidConfig},
		{"short state", State{1}, Config{Dt: 0.1, Ticks: 10}, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.x0, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulatorNonFiniteCarriedForward(t *testing.T) {
	sim := New(&blowup{}, &eulerStep{})

	result, err := sim.Run(context.Background(), State{1, 0}, Config{Ticks: 5, Dt: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 5 {
		t.Errorf("expected 5 steps without validation, got %d", result.StepsTaken)
	}
	if result.Final().IsValid() {
		t.Error("expected NaN to propagate into the final state")
	}
}

func TestSimulatorValidateStateStops(t *testing.T) {
	sim := New(&blowup{}, &eulerStep{})

	result, err := sim.Run(context.Background(), State{1, 0}, Config{Ticks: 5, Dt: 1, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected run to stop before the first accepted step, got %d", result.StepsTaken)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], ErrInvalidState) {
		t.Errorf("expected one ErrInvalidState, got %v", result.Errors)
	}
}

func TestSimulatorCancelled(t *testing.T) {
	sim := New(&decay{}, &eulerStep{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, State{1, 0}, Config{Ticks: 100, Dt: 0.1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || len(result.States) != 1 {
		t.Error("expected partial result holding the initial state")
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(x State, tick int) {
	m.count++
	m.sum += x[0]
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&decay{}, &eulerStep{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1.0, 0}, Config{Ticks: 10, Dt: 0.1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 11 {
		t.Errorf("expected 11 observations (ticks 0..10), got %d", metric.count)
	}
}

// badCounter counts observed states holding NaN or Inf.
type badCounter struct{ bad, total int }

func (b *badCounter) Name() string { return "bad" }
func (b *badCounter) Observe(x State, tick int) {
	b.total++
	if !x.IsValid() {
		b.bad++
	}
}
func (b *badCounter) Value() float64 { return float64(b.bad) }
func (b *badCounter) Reset()         { b.bad, b.total = 0, 0 }

func TestSimulatorMetricsSeeFinalState(t *testing.T) {
	sim := New(&blowup{}, &eulerStep{})
	metric := &badCounter{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1, 0}, Config{Ticks: 1, Dt: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Final().IsValid() {
		t.Fatal("expected non-finite final state")
	}
	if metric.total != 2 || metric.bad != 1 {
		t.Errorf("expected 1 of 2 observed states non-finite, got %d of %d", metric.bad, metric.total)
	}
}

func TestSimulatorValidateStopObservesOnce(t *testing.T) {
	sim := New(&blowup{}, &eulerStep{})
	metric := &badCounter{}
	sim.AddMetric(metric)

	if _, err := sim.Run(context.Background(), State{1, 0}, Config{Ticks: 5, Dt: 1, ValidateState: true}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if metric.total != 1 || metric.bad != 0 {
		t.Errorf("expected only the initial state observed, got %d of %d bad", metric.bad, metric.total)
	}
}

type tickRecorder struct {
	ticks []int
	first State
}

func (r *tickRecorder) OnStep(x State, tick int) {
	if r.first == nil {
		r.first = x.Clone()
	}
	r.ticks = append(r.ticks, tick)
}

func TestObserverSeesEveryTick(t *testing.T) {
	sim := New(&decay{}, &eulerStep{})
	rec := &tickRecorder{}
	sim.AddObserver(rec)

	if _, err := sim.Run(context.Background(), State{1, 0}, Config{Ticks: 10, Dt: 0.1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rec.ticks) != 10 {
		t.Fatalf("expected 10 callbacks, got %d", len(rec.ticks))
	}
	for i, tick := range rec.ticks {
		if tick != i {
			t.Errorf("callback %d got tick %d", i, tick)
		}
	}
	if rec.first[0] != 1 {
		t.Errorf("first observation should be the initial state, got %v", rec.first)
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	sim := New(&decay{}, &eulerStep{})

	calls := 0
	err := sim.RunWithCallback(context.Background(), State{1, 0}, Config{Ticks: 100, Dt: 0.1}, func(x State, tick int) bool {
		calls++
		return tick < 4
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 callbacks, got %d", calls)
	}
}

func TestRunBatch(t *testing.T) {
	jobs := []Job{
		{Name: "a", Simulator: New(&decay{}, &eulerStep{}), X0: State{1, 0}, Config: Config{Ticks: 10, Dt: 0.1}},
		{Name: "b", Simulator: New(&decay{}, &eulerStep{}), X0: State{2, 0}, Config: Config{Ticks: 10, Dt: 0.1}},
		{Name: "bad", Simulator: New(&decay{}, &eulerStep{}), X0: State{2, 0}, Config: Config{Ticks: 10}},
	}

	results := RunBatch(context.Background(), jobs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Name != "a" || results[1].Name != "b" {
		t.Errorf("results out of order: %q, %q", results[0].Name, results[1].Name)
	}
	if results[1].Result.Final()[0] <= results[0].Result.Final()[0] {
		t.Error("expected larger initial value to stay larger")
	}
	if !errors.Is(results[2].Err, ErrInvalidConfig) {
		t.Errorf("expected invalid config error, got %v", results[2].Err)
	}
}
