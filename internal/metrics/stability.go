package metrics

import (
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
)

// Stability is the fraction of ticks whose velocities all stay within the
// threshold. Angles are unbounded and ignored.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, tick int) {
	s.samples++
	for _, val := range x[len(x)/2:] {
		if !(math.Abs(val) <= s.threshold) {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Finite is the fraction of ticks whose state holds no NaN or Inf.
type Finite struct {
	finite  int
	samples int
}

func NewFinite() *Finite { return &Finite{} }

func (f *Finite) Name() string { return "finite" }

func (f *Finite) Observe(x dynamo.State, tick int) {
	f.samples++
	if x.IsValid() {
		f.finite++
	}
}

func (f *Finite) Value() float64 {
	if f.samples == 0 {
		return 1.0
	}
	return float64(f.finite) / float64(f.samples)
}

func (f *Finite) Reset() {
	f.finite = 0
	f.samples = 0
}

// Defaults returns the metric set recorded for every stored run.
func Defaults(h dynamo.Hamiltonian) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(h),
		NewEnergyDrift(h),
		NewStability(1.0),
		NewFinite(),
	}
}
