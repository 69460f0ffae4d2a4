package batch

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/chrisdamba/golfsim/internal/output"
	"github.com/chrisdamba/golfsim/internal/simulator"
	"github.com/lucsky/cuid"
	"golang.org/x/sync/errgroup"
)

// Job is one simulation run: a scenario and the 1-based run index that seeds it.
type Job struct {
	Config   *models.Config
	RunIndex int
}

type Outcome struct {
	Job    Job
	Result *models.RunResult
	Report metrics.Report
}

// Runner executes independent runs concurrently. Every run owns its simulator,
// so the only shared state is the destination and the progress callback.
type Runner struct {
	Parallelism int
	Destination output.Destination
	OnDone      func(Outcome)

	mu sync.Mutex
}

// NewBatchID returns a collision-resistant id for one invocation of the runner.
func NewBatchID() string {
	return cuid.New()
}

// RunJobs returns the outcomes in job order. The first failing run cancels the
// batch and its error is returned.
func (r *Runner) RunJobs(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if r.Parallelism > 0 {
		g.SetLimit(r.Parallelism)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := r.runOne(ctx, job)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			r.done(outcome)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (r *Runner) runOne(ctx context.Context, job Job) (Outcome, error) {
	sim, err := simulator.NewSimulator(job.Config, job.RunIndex)
	if err != nil {
		return Outcome{}, err
	}
	result, err := sim.Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("run %s: %w", sim.SimulationID, err)
	}
	report := metrics.Compute(result, metrics.ParamsFromConfig(job.Config))

	if r.Destination != nil {
		if err := r.Destination.WriteRun(ctx, result, report); err != nil {
			return Outcome{}, fmt.Errorf("write %s: %w", result.SimulationID, err)
		}
	}
	log.Printf("Run %s finished: %d orders, %d delivered, %d failed",
		result.SimulationID, result.TotalOrders, result.SuccessfulOrders, result.FailedOrders)
	return Outcome{Job: job, Result: result, Report: report}, nil
}

func (r *Runner) done(outcome Outcome) {
	if r.OnDone == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OnDone(outcome)
}

// RunJobsFor lists the configured repeats of one scenario.
func RunJobsFor(config *models.Config) []Job {
	jobs := make([]Job, 0, config.Runs)
	for i := 1; i <= config.Runs; i++ {
		jobs = append(jobs, Job{Config: config, RunIndex: i})
	}
	return jobs
}
