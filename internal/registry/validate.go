package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/chainrunner/internal/chain"
	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/model"
)

// ValidateConfig checks that every step of every agent names a registered
// module. All problems are reported together.
func (r *Registry) ValidateConfig(ctx context.Context, cfg *model.Config) error {
	logger := ctxlog.FromContext(ctx)

	var errs []string
	for _, a := range cfg.Agents {
		errs = append(errs, r.unknownModules(a)...)
	}
	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validation passed.", "agents", len(cfg.Agents), "modules", r.Names())
	return nil
}

func (r *Registry) unknownModules(a *model.Agent) []string {
	var errs []string
	for _, c := range a.Chains {
		for i, s := range c.Steps {
			if _, ok := r.factories[s.Module]; !ok {
				errs = append(errs, fmt.Sprintf("agent '%s', chain '%s', step %d: unknown module '%s'", a.Name, c.Name, i, s.Module))
			}
		}
	}
	return errs
}

// CompileAgent resolves every step of the agent's chains into an executable
// chain. The returned map is freshly allocated and owned by the caller.
func (r *Registry) CompileAgent(a *model.Agent) (map[string]*chain.Chain, error) {
	if errs := r.unknownModules(a); len(errs) > 0 {
		return nil, fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	chains := make(map[string]*chain.Chain, len(a.Chains))
	for _, c := range a.Chains {
		compiled := &chain.Chain{Name: c.Name, Steps: make([]chain.Step, 0, len(c.Steps))}
		for _, s := range c.Steps {
			ref, _ := r.Resolve(s.Module)
			compiled.Steps = append(compiled.Steps, chain.Step{
				Ref:          ref,
				Function:     s.Function,
				Args:         s.Args,
				IgnoreOutput: s.IgnoreOutput,
			})
		}
		chains[c.Name] = compiled
	}
	return chains, nil
}
