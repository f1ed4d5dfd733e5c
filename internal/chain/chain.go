// Package chain is the execution core: it runs a flat, strictly ordered
// sequence of module steps, threading each step's result into the next
// step's input, retrying falsy results with a fixed backoff and aborting the
// whole chain as soon as one step exhausts its retry budget.
package chain

import (
	"context"
	"time"

	"github.com/specialistvlad/chainrunner/internal/invoker"
	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/zclconf/go-cty/cty"
)

// Reserved chain names driven by an agent.
const (
	Registration = "REG"
	Client       = "CLIENT"
)

// Step is one compiled (module reference, arguments) pair. Steps are
// immutable once built; the executor derives a fresh arguments record for
// every run.
type Step struct {
	Ref          invoker.Ref
	Function     string
	Args         cty.Value
	IgnoreOutput bool
}

// Arguments returns the record handed to the module for this step, with
// input as the threaded value.
func (s Step) Arguments(input module.Result) module.Arguments {
	return module.Arguments{Settings: module.Settings{
		Function:     s.Function,
		Input:        input,
		Args:         s.Args,
		IgnoreOutput: s.IgnoreOutput,
	}}
}

// Chain is a named, ordered sequence of steps.
type Chain struct {
	Name  string
	Steps []Step
}

// RetryPolicy bounds how often a step is attempted and how long the executor
// waits between attempts. The backoff is constant.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy is three attempts with a five second pause in between.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 5 * time.Second}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
