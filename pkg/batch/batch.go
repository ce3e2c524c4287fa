// Package batch runs contour and state generation for many coupling
// constant pairs on a bounded worker pool, with per-job progress that can
// be polled while the batch runs.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spectralab/zhukovsky/pkg/contours"
	"github.com/spectralab/zhukovsky/pkg/kinematics"
	"github.com/spectralab/zhukovsky/pkg/paths"
	"github.com/spectralab/zhukovsky/pkg/surface"
)

// JobStatus represents the status of a generation job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job describes one generation task: the coupling constants to build
// contours for and, when StatePoints > 0, the size of the bound state to
// seed and encode alongside them.
type Job struct {
	Consts      kinematics.CouplingConstants
	StatePoints int
}

// Result is the output of one completed job.
type Result struct {
	Contours *contours.Contours

	// Encoded holds the compressed snapshot of the generated state, empty
	// when the job built contours only.
	Encoded string
}

// JobSnapshot is a point-in-time view of a job's progress.
type JobSnapshot struct {
	Index       int
	Status      JobStatus
	Done        int
	Total       int
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
}

type jobState struct {
	snapshot JobSnapshot
}

// Generator runs a list of jobs with bounded parallelism.
type Generator struct {
	workers int
	jobs    []Job

	mu      sync.RWMutex
	states  []jobState
	results []Result
}

// NewGenerator prepares a batch. workers bounds the number of jobs built
// concurrently; values below one run the batch sequentially.
func NewGenerator(workers int, jobs []Job) *Generator {
	if workers < 1 {
		workers = 1
	}
	states := make([]jobState, len(jobs))
	for i := range states {
		states[i].snapshot = JobSnapshot{Index: i, Status: StatusQueued, Total: 1}
	}
	return &Generator{
		workers: workers,
		jobs:    jobs,
		states:  states,
		results: make([]Result, len(jobs)),
	}
}

// Snapshots returns the current progress of every job.
func (g *Generator) Snapshots() []JobSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]JobSnapshot, len(g.states))
	for i := range g.states {
		out[i] = g.states[i].snapshot
	}
	return out
}

// Progress returns the summed progress over all jobs.
func (g *Generator) Progress() (int, int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var done, total int
	for i := range g.states {
		done += g.states[i].snapshot.Done
		total += g.states[i].snapshot.Total
	}
	if total == 0 {
		total = 1
	}
	return done, total
}

func (g *Generator) setSnapshot(i int, update func(*JobSnapshot)) {
	g.mu.Lock()
	update(&g.states[i].snapshot)
	g.mu.Unlock()
}

// Run executes the batch and returns the per-job results in job order.
// The first job error cancels the remaining jobs through the context.
func (g *Generator) Run(ctx context.Context) ([]Result, error) {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)

	for i := range g.jobs {
		i := i
		group.Go(func() error {
			return g.runJob(ctx, i)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Result, len(g.results))
	copy(out, g.results)
	return out, nil
}

func (g *Generator) runJob(ctx context.Context, i int) error {
	job := g.jobs[i]

	if err := job.Consts.Validate(); err != nil {
		g.setSnapshot(i, func(s *JobSnapshot) {
			s.Status = StatusFailed
			s.Err = err.Error()
		})
		return fmt.Errorf("job %d: %w", i, err)
	}

	g.setSnapshot(i, func(s *JobSnapshot) {
		s.Status = StatusRunning
		s.StartedAt = time.Now()
	})

	slog.Info("building contours", "job", i, "h", job.Consts.H, "k", job.Consts.K())

	cts := contours.New()
	for {
		if err := ctx.Err(); err != nil {
			g.setSnapshot(i, func(s *JobSnapshot) {
				s.Status = StatusFailed
				s.Err = err.Error()
			})
			return err
		}

		finished := cts.Update(0, job.Consts)
		done, total := cts.Progress()
		g.setSnapshot(i, func(s *JobSnapshot) {
			s.Done, s.Total = done, total
		})
		if finished {
			break
		}
	}

	result := Result{Contours: cts}

	if job.StatePoints > 0 {
		st := surface.NewState(job.StatePoints, job.Consts)
		encoded, err := (&paths.SavedState{Consts: job.Consts, State: *st}).EncodeCompressed()
		if err != nil {
			g.setSnapshot(i, func(s *JobSnapshot) {
				s.Status = StatusFailed
				s.Err = err.Error()
			})
			return fmt.Errorf("job %d: encoding state: %w", i, err)
		}
		result.Encoded = encoded
	}

	g.mu.Lock()
	g.results[i] = result
	g.states[i].snapshot.Status = StatusCompleted
	g.states[i].snapshot.CompletedAt = time.Now()
	g.mu.Unlock()

	slog.Info("job finished", "job", i, "h", job.Consts.H, "k", job.Consts.K())
	return nil
}
