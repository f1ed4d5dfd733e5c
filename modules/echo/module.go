// Package echo returns a configured value, or its input when none is
// configured. It is handy for seeding a chain and for smoke tests.
package echo

import (
	"context"

	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/registry"
)

// Name is the identifier the module is registered under.
const Name = "echo"

// Module implements the registry.Module interface for this package.
type Module struct{}

type echo struct {
	value module.Result
}

func (e *echo) Run(context.Context) (module.Result, error) {
	return e.value, nil
}

func newEcho(_ string, args module.Arguments) (any, error) {
	if _, ok := args.Settings.Arg("value"); !ok {
		return &echo{value: args.Settings.Input}, nil
	}
	v, err := args.Settings.AnyArg("value")
	if err != nil {
		return nil, err
	}
	return &echo{value: v}, nil
}

// Register registers the module with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Name, newEcho)
}
