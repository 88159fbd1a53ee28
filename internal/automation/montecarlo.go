package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/experiment"
)

// DefaultBound is the magnitude past which a state entry counts as escaped.
const DefaultBound = 1e6

// MonteCarloConfig perturbs the base initial angles and velocities
// uniformly in [-Perturbation, +Perturbation].
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Bound        float64
	Seed         int64
}

// MonteCarloResult holds one trial
type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	Stable     bool // final state finite and within Bound
}

// RunMonteCarlo runs all trials concurrently through dynamo.RunBatch.
// Results are in trial order.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, reg *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("monte carlo: trials must be positive, got %d", cfg.NumTrials)
	}
	bound := cfg.Bound
	if bound <= 0 {
		bound = DefaultBound
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	jobs := make([]dynamo.Job, cfg.NumTrials)
	inits := make([]dynamo.State, cfg.NumTrials)
	for trial := range jobs {
		c := *cfg.Base
		for _, name := range []string{"a1", "a2", "v1", "v2"} {
			dst, _ := c.Field(name)
			*dst += (rng.Float64() - 0.5) * 2 * cfg.Perturbation
		}

		exp, err := experiment.New(&c, reg, experiment.Options{RecordEvery: c.Ticks})
		if err != nil {
			return nil, err
		}
		jobs[trial] = exp.Job(fmt.Sprintf("trial-%d", trial))
		inits[trial] = jobs[trial].X0.Clone()
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial, jr := range dynamo.RunBatch(ctx, jobs) {
		if jr.Err != nil {
			return nil, fmt.Errorf("%s: %w", jr.Name, jr.Err)
		}
		final := jr.Result.Final()
		results = append(results, MonteCarloResult{
			TrialID:    trial,
			InitState:  inits[trial],
			FinalState: final,
			Stable:     bounded(final, bound),
		})
	}

	return results, nil
}

func bounded(x dynamo.State, bound float64) bool {
	if x == nil {
		return false
	}
	for _, v := range x {
		if math.IsNaN(v) || math.Abs(v) > bound {
			return false
		}
	}
	return true
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
