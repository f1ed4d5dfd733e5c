// Package env_vars returns the process environment as a map.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/registry"
)

// Name is the identifier the module is registered under.
const Name = "env_vars"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Collector reads environment variables, optionally only those starting with
// a prefix.
type Collector struct {
	prefix      string
	stripPrefix bool
	environ     func() []string
}

// Run returns the matching variables. An empty map is falsy, so a step that
// finds nothing is retried.
func (c *Collector) Run(context.Context) (module.Result, error) {
	envMap := make(map[string]string)
	for _, e := range c.environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], c.prefix) {
			continue
		}
		key := pair[0]
		if c.stripPrefix {
			key = strings.TrimPrefix(key, c.prefix)
		}
		envMap[key] = pair[1]
	}
	return envMap, nil
}

func newCollector(_ string, args module.Arguments) (any, error) {
	prefix, err := args.Settings.StringArg("prefix", "")
	if err != nil {
		return nil, err
	}
	strip, err := args.Settings.BoolArg("strip_prefix", false)
	if err != nil {
		return nil, err
	}
	return &Collector{prefix: prefix, stripPrefix: strip, environ: os.Environ}, nil
}

// Register registers the module with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Name, newCollector)
}
