package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/chainrunner/internal/invoker"
	"github.com/specialistvlad/chainrunner/internal/module"
)

// Module is the interface that all modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the module factories for a single application instance.
type Registry struct {
	factories map[string]module.Factory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		factories: make(map[string]module.Factory),
	}
}

// Register maps a module name to its factory. Registering the same name twice
// or a nil factory is a programming error and panics.
func (r *Registry) Register(name string, factory module.Factory) {
	if name == "" {
		panic("module name must not be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("module '%s' registered with a nil factory", name))
	}
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("module with name '%s' already registered", name))
	}
	slog.Debug("Registering module.", "name", name)
	r.factories[name] = factory
}

// RegisterModules calls Register on every given module.
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Resolve returns a reference to the named module.
func (r *Registry) Resolve(name string) (invoker.Ref, bool) {
	f, ok := r.factories[name]
	if !ok {
		return invoker.Ref{}, false
	}
	return invoker.Ref{Name: name, Factory: f}, true
}

// Names returns the registered module names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
