// Package module defines the contract between the chain engine and the
// pluggable units of work it drives.
//
// A module is registered under an identifier as a Factory. For every step
// attempt the engine calls the factory with the agent's mode and a fresh
// Arguments record; if the constructed instance implements Runnable, its Run
// method is the step's entrypoint. Instances that do not implement Runnable
// are treated as completed-but-failed attempts.
package module

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Result is the opaque value returned by a module. The engine only inspects
// its truthiness; see Truthy.
type Result = any

// Settings carries the per-step configuration handed to a module.
type Settings struct {
	// Function is passed through for the module's own dispatch and for logging.
	Function string
	// Input is the previous step's result, or nil for the first step.
	Input Result
	// Args holds the step's configured arguments. It is a null value when the
	// step declares none.
	Args cty.Value
	// IgnoreOutput marks the step's result as not worth threading forward.
	IgnoreOutput bool
}

// Arguments is the record a module instance is constructed with.
type Arguments struct {
	Settings Settings
}

// Runnable is the optional entrypoint capability of a module instance.
type Runnable interface {
	Run(ctx context.Context) (Result, error)
}

// Factory constructs a module instance bound to the agent's mode and the
// step's arguments. A returned error aborts the agent run.
type Factory func(mode string, args Arguments) (any, error)

// RunFunc adapts a plain function to the Runnable interface.
type RunFunc func(ctx context.Context) (Result, error)

// Run calls f(ctx).
func (f RunFunc) Run(ctx context.Context) (Result, error) {
	return f(ctx)
}
