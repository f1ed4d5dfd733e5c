// Package agent implements the top-level driver: an Agent optionally runs its
// one-time registration chain, then its client chain once or on an interval,
// and finally publishes a single outcome to its result sink.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/chainrunner/internal/chain"
	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/invoker"
	"github.com/specialistvlad/chainrunner/internal/sink"
)

// ErrAlreadyRun is returned when Run is called on an agent more than once.
var ErrAlreadyRun = errors.New("agent has already run")

// ChainRunner executes one chain and reports whether it succeeded.
type ChainRunner interface {
	Run(ctx context.Context, c *chain.Chain) (bool, error)
}

// Config holds the construction inputs of an Agent.
type Config struct {
	Name string
	// Mode is passed unchanged to every module the agent constructs.
	Mode   string
	Chains map[string]*chain.Chain
	// Interval is the pause in seconds between client passes.
	Interval int
	Sink     sink.Sink
	// Verbosity overrides the level of the context logger for this agent.
	Verbosity *int
}

// Option customizes an Agent.
type Option func(*Agent)

// WithChainRunner replaces the default executor.
func WithChainRunner(r ChainRunner) Option {
	return func(a *Agent) { a.exec = r }
}

// WithExecutorOptions configures the default executor.
func WithExecutorOptions(opts ...chain.Option) Option {
	return func(a *Agent) { a.execOpts = append(a.execOpts, opts...) }
}

// WithSleeper replaces the sleep between client passes.
func WithSleeper(s chain.Sleeper) Option {
	return func(a *Agent) { a.sleep = s }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(a *Agent) { a.runID = id }
}

// WithClock overrides the time source for Outcome.FinishedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// Agent drives the REG and CLIENT chains of one configured agent.
type Agent struct {
	name      string
	mode      string
	runID     string
	interval  int
	verbosity *int
	sink      sink.Sink

	exec     ChainRunner
	execOpts []chain.Option
	sleep    chain.Sleeper
	now      func() time.Time

	mu         sync.Mutex
	chains     map[string]*chain.Chain
	registered bool
	started    bool
	status     Status
}

// New validates cfg and returns an Agent. The agent keeps its own copy of the
// chain map; cfg.Chains is never modified.
func New(cfg Config, opts ...Option) (*Agent, error) {
	if cfg.Name == "" {
		return nil, errors.New("agent name must not be empty")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("agent '%s': result sink must not be nil", cfg.Name)
	}
	if cfg.Chains[chain.Client] == nil {
		return nil, fmt.Errorf("agent '%s': missing required chain '%s'", cfg.Name, chain.Client)
	}

	chains := make(map[string]*chain.Chain, len(cfg.Chains))
	for name, c := range cfg.Chains {
		chains[name] = c
	}

	a := &Agent{
		name:      cfg.Name,
		mode:      cfg.Mode,
		runID:     uuid.NewString(),
		interval:  cfg.Interval,
		verbosity: cfg.Verbosity,
		sink:      cfg.Sink,
		sleep:     chain.Sleep,
		now:       time.Now,
		chains:    chains,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.exec == nil {
		a.exec = chain.NewExecutor(invoker.New(a.mode), a.execOpts...)
	}

	a.status = Status{
		Name:         a.name,
		RunID:        a.runID,
		Mode:         a.mode,
		Registration: RegistrationNotStarted,
		Client:       ClientIdle,
	}
	return a, nil
}

// Name returns the agent's identity.
func (a *Agent) Name() string { return a.name }

// RunID returns the identifier attached to this agent's logs and outcome.
func (a *Agent) RunID() string { return a.runID }

// Registered reports whether the REG chain has completed successfully.
func (a *Agent) Registered() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registered
}

// ChainNames returns the names of the chains the agent still holds, sorted.
func (a *Agent) ChainNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.chains))
	for name := range a.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Agent) logger(base *slog.Logger) *slog.Logger {
	if a.verbosity != nil {
		base = slog.New(ctxlog.NewLevelHandler(ctxlog.LevelForVerbosity(*a.verbosity), base.Handler()))
	}
	return base.With("agent", a.name, "run_id", a.runID)
}

// Run drives the agent to completion and publishes its outcome. It returns the
// published success flag and any module or publish error. When ctx is
// cancelled the run stops at the next suspension point and nothing is
// published. Run may only be called once.
func (a *Agent) Run(ctx context.Context) (bool, error) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return false, ErrAlreadyRun
	}
	a.started = true
	a.mu.Unlock()

	logger := a.logger(ctxlog.FromContext(ctx))
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("Agent started.", "pid", os.Getpid(), "mode", a.mode, "interval", a.interval, "chains", a.ChainNames())

	ok, err := a.drive(ctx)
	if ctx.Err() != nil {
		logger.Info("Agent cancelled, no outcome published.", "cause", context.Cause(ctx))
		a.finish(nil)
		if err == nil {
			err = ctx.Err()
		}
		return false, err
	}
	if err != nil {
		logger.Error("Agent stopped by a module error.", "error", err)
	}

	outcome := sink.Outcome{Agent: a.name, RunID: a.runID, Success: ok, FinishedAt: a.now().UTC()}
	if pubErr := a.sink.Publish(ctx, outcome); pubErr != nil {
		logger.Error("Failed to publish outcome.", "error", pubErr)
		err = errors.Join(err, fmt.Errorf("agent '%s': publish outcome: %w", a.name, pubErr))
	} else {
		logger.Info("Agent finished.", "success", ok)
	}

	a.finish(&ok)
	return ok, err
}

func (a *Agent) drive(ctx context.Context) (bool, error) {
	a.mu.Lock()
	reg, hasReg := a.chains[chain.Registration]
	registered := a.registered
	a.mu.Unlock()

	if hasReg && !registered {
		phase := NewRegistrationPhase(reg, a.exec)
		phase.onState = a.setRegistration
		ok, err := phase.Run(ctx)
		if err != nil || !ok {
			return false, err
		}

		a.mu.Lock()
		a.registered = true
		delete(a.chains, chain.Registration)
		a.mu.Unlock()
	}

	a.mu.Lock()
	client := a.chains[chain.Client]
	a.mu.Unlock()

	phase := NewClientPhase(client, a.interval, a.exec, a.sleep)
	phase.onState = a.setClient
	phase.onPass = a.countIteration
	return phase.Run(ctx)
}
