package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/chainrunner/internal/agent"
	"github.com/specialistvlad/chainrunner/internal/chain"
	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/model"
	"github.com/specialistvlad/chainrunner/internal/registry"
	"github.com/specialistvlad/chainrunner/internal/sink"
)

// Version is reported to the telemetry backend. Overridden at build time.
var Version = "dev"

// compiledAgent is an agent definition whose chains have been resolved
// against the registry.
type compiledAgent struct {
	def    *model.Agent
	chains map[string]*chain.Chain
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *model.Config
	compiled []compiledAgent

	agentOpts  []agent.Option
	httpServer *http.Server

	mu       sync.Mutex
	agents   []*agent.Agent
	outcomes []sink.Outcome
}

// NewApp is the constructor for the main application. It loads and validates
// every agent definition and returns an App ready to Run. Startup failures
// panic; the entrypoint recovers them into an error.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := model.LoadAgentsRecursively(ctx, cfg.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded.", "agents", len(cfgModel.Agents))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg.RegisterModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "names", reg.Names())

	if err := reg.ValidateConfig(ctx, cfgModel); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	compiled := make([]compiledAgent, 0, len(cfgModel.Agents))
	for _, def := range cfgModel.Agents {
		chains, err := reg.CompileAgent(def)
		if err != nil {
			panic(fmt.Errorf("failed to compile agent '%s': %w", def.Name, err))
		}
		compiled = append(compiled, compiledAgent{def: def, chains: chains})
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		model:    cfgModel,
		compiled: compiled,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// SetAgentOptions appends options applied to every agent built by Run.
// This is primarily for testing.
func (a *App) SetAgentOptions(opts ...agent.Option) {
	a.agentOpts = append(a.agentOpts, opts...)
}

// Agents returns the agents of the current or last run.
func (a *App) Agents() []*agent.Agent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*agent.Agent(nil), a.agents...)
}

// Outcomes returns the outcomes received so far, in publish order.
func (a *App) Outcomes() []sink.Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]sink.Outcome(nil), a.outcomes...)
}

func (a *App) recordOutcome(o sink.Outcome) {
	a.mu.Lock()
	a.outcomes = append(a.outcomes, o)
	a.mu.Unlock()
}

// Statuses returns a snapshot of every agent's status.
func (a *App) Statuses() []agent.Status {
	agents := a.Agents()
	out := make([]agent.Status, 0, len(agents))
	for _, ag := range agents {
		out = append(out, ag.Status())
	}
	return out
}
