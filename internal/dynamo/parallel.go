package dynamo

import (
	"context"
	"sync"
)

// Job is one independent run for RunBatch.
type Job struct {
	Name      string
	Simulator *Simulator
	X0        State
	Config    Config
}

type JobResult struct {
	Name   string
	Result *Result
	Err    error
}

// RunBatch executes every job on its own goroutine and returns the results
// in job order. Jobs must not share a Simulator, Integrator or Metric.
func RunBatch(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))

	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			job := jobs[idx]
			res, err := job.Simulator.Run(ctx, job.X0, job.Config)
			results[idx] = JobResult{Name: job.Name, Result: res, Err: err}
		}(i)
	}

	wg.Wait()
	return results
}
