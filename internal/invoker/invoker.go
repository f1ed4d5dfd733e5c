// Package invoker turns a resolved module reference plus an arguments record
// into exactly one module execution.
package invoker

import (
	"context"
	"fmt"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/ctyconv"
	"github.com/specialistvlad/chainrunner/internal/module"
)

// Ref identifies a module by its registry name together with the factory the
// name was resolved to when the chain was built.
type Ref struct {
	Name    string
	Factory module.Factory
}

// ModuleError wraps a failure raised by a module's factory or entrypoint.
// Such failures are not retried; they abort the whole agent run.
type ModuleError struct {
	Module   string
	Function string
	Err      error
}

// Error implements the error interface.
func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s (function %q) failed: %v", e.Module, e.Function, e.Err)
}

// Unwrap returns the underlying module error.
func (e *ModuleError) Unwrap() error {
	return e.Err
}

// Invoker constructs and runs module instances for one agent.
type Invoker struct {
	mode string
}

// New returns an Invoker that binds every instance it builds to mode.
func New(mode string) *Invoker {
	return &Invoker{mode: mode}
}

// Mode returns the mode forwarded to module factories.
func (i *Invoker) Mode() string {
	return i.mode
}

// Invoke constructs the module referenced by ref and runs its entrypoint once.
// An instance without an entrypoint yields a nil result and no error.
func (i *Invoker) Invoke(ctx context.Context, ref Ref, args module.Arguments) (module.Result, error) {
	logger := ctxlog.FromContext(ctx)
	settings := args.Settings

	logger.Debug("Running function from module.",
		"function", settings.Function,
		"module", ref.Name,
		"input", ctyconv.ForLogs(settings.Input),
		"args", ctyconv.ForLogs(settings.Args),
	)

	if ref.Factory == nil {
		return nil, &ModuleError{Module: ref.Name, Function: settings.Function, Err: fmt.Errorf("module has no factory")}
	}

	instance, err := ref.Factory(i.mode, args)
	if err != nil {
		return nil, &ModuleError{Module: ref.Name, Function: settings.Function, Err: fmt.Errorf("construct instance: %w", err)}
	}
	logger.Info("Running module.", "module", ref.Name, "type", fmt.Sprintf("%T", instance), "function", settings.Function)

	runnable, ok := instance.(module.Runnable)
	if !ok {
		logger.Debug("Module instance has no entrypoint, treating attempt as failed.", "module", ref.Name)
		return nil, nil
	}

	result, err := run(ctx, runnable)
	if err != nil {
		return nil, &ModuleError{Module: ref.Name, Function: settings.Function, Err: err}
	}
	return result, nil
}

// run calls the entrypoint, converting a panic into an error so a misbehaving
// module takes down its own agent rather than the whole process.
func run(ctx context.Context, r module.Runnable) (result module.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.Run(ctx)
}
