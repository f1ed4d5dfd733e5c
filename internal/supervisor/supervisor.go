// Package supervisor runs many agents concurrently, one goroutine per agent,
// with an optional limit on how many run at the same time.
package supervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Runner is an agent as seen by the supervisor.
type Runner interface {
	Name() string
	Run(ctx context.Context) (bool, error)
}

// Result is the final state of one agent.
type Result struct {
	Agent   string
	Success bool
	Err     error
}

// Report collects the results of a supervised run in agent order.
type Report struct {
	Results []Result
}

// Succeeded reports whether every agent finished successfully.
func (r Report) Succeeded() bool {
	for _, res := range r.Results {
		if !res.Success || res.Err != nil {
			return false
		}
	}
	return len(r.Results) > 0
}

// Failed returns the names of agents that did not succeed.
func (r Report) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if !res.Success || res.Err != nil {
			names = append(names, res.Agent)
		}
	}
	return names
}

// Err joins the errors returned by agents.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("agent '%s': %w", res.Agent, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Supervisor starts agents and waits for all of them.
type Supervisor struct {
	workers int
}

// New returns a Supervisor. workers bounds the number of agents running at
// once; zero or less means no bound. Agents beyond the bound wait for a slot,
// so a bound below the number of looping agents starves the rest.
func New(workers int) *Supervisor {
	return &Supervisor{workers: workers}
}

// Run executes every agent and blocks until all of them have returned. One
// agent failing does not stop the others; cancelling ctx stops all of them.
func (s *Supervisor) Run(ctx context.Context, agents []Runner) Report {
	logger := ctxlog.FromContext(ctx)

	var g errgroup.Group
	if s.workers > 0 {
		g.SetLimit(s.workers)
	}

	results := make([]Result, len(agents))
	for i, a := range agents {
		g.Go(func() error {
			workerLogger := logger.With("slot", i, "agent", a.Name())
			if ctx.Err() != nil {
				results[i] = Result{Agent: a.Name(), Err: ctx.Err()}
				workerLogger.Debug("Agent skipped, supervisor is shutting down.")
				return nil
			}

			workerLogger.Debug("Agent picked up.")
			ok, err := a.Run(ctx)
			results[i] = Result{Agent: a.Name(), Success: ok, Err: err}
			workerLogger.Debug("Agent returned.", "success", ok, "error", err)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Results: results}
	logger.Info("All agents finished.", "agents", len(agents), "failed", report.Failed())
	return report
}
