package pendulum

import (
	"errors"
	"math"
	"testing"
)

const tol = 1e-9

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.R1 != 100 || cfg.R2 != 100 {
		t.Errorf("expected rod lengths 100, got %v, %v", cfg.R1, cfg.R2)
	}
	if cfg.M1 != 10 || cfg.M2 != 10 {
		t.Errorf("expected masses 10, got %v, %v", cfg.M1, cfg.M2)
	}
	if cfg.A1 != math.Pi/2 || cfg.A2 != math.Pi/2 {
		t.Errorf("expected horizontal start, got %v, %v", cfg.A1, cfg.A2)
	}
	if cfg.V1 != 0 || cfg.V2 != 0 {
		t.Errorf("expected zero velocities, got %v, %v", cfg.V1, cfg.V2)
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"zero r1", Params{R1: 0, R2: 1, M1: 1, M2: 1}},
		{"negative r2", Params{R1: 1, R2: -1, M1: 1, M2: 1}},
		{"zero m1", Params{R1: 1, R2: 1, M1: 0, M2: 1}},
		{"zero m2", Params{R1: 1, R2: 1, M1: 1, M2: 0}},
		{"nan mass", Params{R1: 1, R2: 1, M1: math.NaN(), M2: 1}},
		{"inf length", Params{R1: math.Inf(1), R2: 1, M1: 1, M2: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{Params: tt.params})
			if !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

// reference transcribes the update rule independently of Advance.
func reference(p Params, a1, a2, v1, v2 float64) (na1, na2, nv1, nv2 float64) {
	g := 1.0
	n1 := -g * (2*p.M1 + p.M2) * math.Sin(a1)
	n2 := -p.M2 * g * math.Sin(a1-2*a2)
	n3 := -2 * math.Sin(a1-a2) * p.M2
	n4 := v2*v2*p.R2 + v1*v1*p.R1*math.Cos(a1-a2)
	d1 := p.R1 * (2*p.M1 + p.M2 - p.M2*math.Cos(2*a1-2*a2))
	acc1 := 0.1 * ((n1 + n2 + n3*n4) / d1)

	m1 := 2 * math.Sin(a1-a2)
	m2 := v1 * v1 * p.R1 * (p.M1 + p.M2)
	m3 := g * (p.M1 + p.M2) * math.Cos(a1)
	m4 := v2 * v2 * p.R2 * p.M2 * math.Cos(a1-a2)
	d2 := p.R2 * (2*p.M1 + p.M2 - p.M2*math.Cos(2*a1-2*a2))
	acc2 := 0.1 * (m1 * (m2 + m3 + m4)) / d2

	nv1, nv2 = v1+acc1, v2+acc2
	return a1 + nv1, a2 + nv2, nv1, nv2
}

func TestAdvanceOneTickGolden(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	p.Advance()

	// Both rods horizontal: acc1 = -0.1*g*sin(pi/2)/r1, acc2 = 0.
	want := struct{ a1, a2, v1, v2 float64 }{
		a1: math.Pi/2 - 0.001,
		a2: math.Pi / 2,
		v1: -0.001,
		v2: 0,
	}

	if math.Abs(p.A1-want.a1) > 1e-12 {
		t.Errorf("a1 = %.17g, want %.17g", p.A1, want.a1)
	}
	if math.Abs(p.A2-want.a2) > 1e-12 {
		t.Errorf("a2 = %.17g, want %.17g", p.A2, want.a2)
	}
	if math.Abs(p.V1-want.v1) > 1e-12 {
		t.Errorf("v1 = %.17g, want %.17g", p.V1, want.v1)
	}
	if math.Abs(p.V2-want.v2) > 1e-12 {
		t.Errorf("v2 = %.17g, want %.17g", p.V2, want.v2)
	}
	if p.Tick() != 1 {
		t.Errorf("tick = %d, want 1", p.Tick())
	}
}

func TestAdvanceMatchesReferenceTranscription(t *testing.T) {
	cfg := Config{
		Params: Params{R1: 80, R2: 120, M1: 7, M2: 13},
		A1:     1.1, A2: -0.4, V1: 0.02, V2: -0.03,
	}
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	a1, a2, v1, v2 := cfg.A1, cfg.A2, cfg.V1, cfg.V2
	for i := 0; i < 500; i++ {
		p.Advance()
		a1, a2, v1, v2 = reference(cfg.Params, a1, a2, v1, v2)

		if p.A1 != a1 || p.A2 != a2 || p.V1 != v1 || p.V2 != v2 {
			t.Fatalf("tick %d diverged: got (%v %v %v %v) want (%v %v %v %v)",
				i+1, p.A1, p.A2, p.V1, p.V2, a1, a2, v1, v2)
		}
	}
}

func TestAdvanceUsesUpdatedVelocity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.V1 = 0.05

	p, _ := New(cfg)
	p.Advance()

	// The angle moves by the post-update velocity, not the initial one.
	if got, want := p.A1-cfg.A1, p.V1; math.Abs(got-want) > 1e-15 {
		t.Errorf("a1 moved by %v, want updated velocity %v", got, want)
	}
	if math.Abs(p.V1-(cfg.V1+p.Acc1)) > 1e-15 {
		t.Errorf("v1 = %v, want v0 + acc1 = %v", p.V1, cfg.V1+p.Acc1)
	}
}

func TestSymmetricStartAccelerations(t *testing.T) {
	params := DefaultConfig().Params

	for _, theta := range []float64{-2.5, -1, -0.3, 0, 0.3, math.Pi / 2, 2, 3} {
		acc1, acc2 := Accelerations(params, theta, theta, 0, 0)

		want1 := -IntegrationRate * Gravity * math.Sin(theta) / params.R1
		if math.Abs(acc1-want1) > tol {
			t.Errorf("theta=%v: acc1 = %v, want %v", theta, acc1, want1)
		}
		if math.Abs(acc2) > tol {
			t.Errorf("theta=%v: acc2 = %v, want 0", theta, acc2)
		}
	}
}

func TestEquilibriumFixedPoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.A1, cfg.A2 = 0, 0

	p, _ := New(cfg)
	for i := 0; i < 100; i++ {
		p.Advance()
	}

	for name, v := range map[string]float64{"a1": p.A1, "a2": p.A2, "v1": p.V1, "v2": p.V2} {
		if math.Abs(v) > tol {
			t.Errorf("%s = %v, want 0 at equilibrium", name, v)
		}
	}
}

func TestSnapshotConsistency(t *testing.T) {
	p, _ := New(DefaultConfig())
	params := p.Params()

	for i := 0; i < 2000; i++ {
		p.Advance()
		s := p.Snapshot()

		if math.Abs(s.Bob1.X-params.R1*math.Sin(p.A1)) > tol ||
			math.Abs(s.Bob1.Y-params.R1*math.Cos(p.A1)) > tol {
			t.Fatalf("tick %d: bob1 %+v inconsistent with a1=%v", i+1, s.Bob1, p.A1)
		}
		if math.Abs(s.Bob2.X-(s.Bob1.X+params.R2*math.Sin(p.A2))) > tol ||
			math.Abs(s.Bob2.Y-(s.Bob1.Y+params.R2*math.Cos(p.A2))) > tol {
			t.Fatalf("tick %d: bob2 %+v inconsistent with a2=%v", i+1, s.Bob2, p.A2)
		}
		if s.Tick != uint64(i+1) {
			t.Fatalf("snapshot tick = %d, want %d", s.Tick, i+1)
		}
	}
}

func TestSnapshotDoesNotMutate(t *testing.T) {
	p, _ := New(DefaultConfig())
	p.Advance()
	before := *p

	_ = p.Snapshot()
	_ = p.Snapshot()

	if *p != before {
		t.Error("Snapshot changed the pendulum state")
	}
}

func TestDeterminism(t *testing.T) {
	a, _ := New(DefaultConfig())
	b, _ := New(DefaultConfig())

	for i := 0; i < 5000; i++ {
		a.Advance()
		b.Advance()
	}

	if *a != *b {
		t.Errorf("identical runs diverged: %+v vs %+v", *a, *b)
	}
}

func TestLongRunStaysFinite(t *testing.T) {
	p, _ := New(DefaultConfig())

	for i := 0; i < 10000; i++ {
		p.Advance()
		if !p.IsFinite() {
			t.Fatalf("non-finite state at tick %d: %+v", i+1, *p)
		}
	}
}

func TestDegenerateParamsDoNotPanic(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantFinal bool
	}{
		// m2 = 0 leaves den1 = 2*r1*m1, so values stay finite.
		{"zero m2", Config{Params: Params{R1: 100, R2: 100, M1: 10, M2: 0}, A1: math.Pi / 2, A2: math.Pi / 2}, true},
		// m1 = 0 with a1 == a2 makes both denominators exactly zero.
		{"zero denominator", Config{Params: Params{R1: 100, R2: 100, M1: 0, M2: 10}, A1: math.Pi / 2, A2: math.Pi / 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewUnchecked(tt.cfg)
			for i := 0; i < 100; i++ {
				p.Advance()
			}
			if p.Tick() != 100 {
				t.Errorf("tick = %d, want 100", p.Tick())
			}
			if p.IsFinite() != tt.wantFinal {
				t.Errorf("IsFinite() = %v, want %v (state %+v)", p.IsFinite(), tt.wantFinal, *p)
			}
			_ = p.Snapshot()
		})
	}
}

func TestEnergyAtRest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.A1, cfg.A2 = 0, 0
	p, _ := New(cfg)

	// Both bobs straight down: y1 = 100, y2 = 200.
	want := -Gravity * (10*100 + 10*200)
	if got := p.Energy(); math.Abs(got-want) > tol {
		t.Errorf("Energy() = %v, want %v", got, want)
	}

	h, _ := New(DefaultConfig())
	if got := h.Energy(); math.Abs(got) > 1e-9 {
		t.Errorf("horizontal rest energy = %v, want 0", got)
	}
}
