package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/chainrunner/internal/agent"
	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/sink"
	"github.com/specialistvlad/chainrunner/internal/supervisor"
	"github.com/specialistvlad/chainrunner/internal/telemetry"
)

// shutdownTimeout bounds flushing telemetry and stopping the health server.
const shutdownTimeout = 5 * time.Second

// Run starts every agent and blocks until all of them have finished. It
// returns an error when any agent failed. A cancelled ctx stops the agents
// without publishing outcomes and is not reported as an error.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    a.config.OTelEndpoint,
		Insecure:    a.config.OTelInsecure,
		ServiceName: "chainrunner",
		Version:     Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			a.logger.Error("Telemetry shutdown failed.", "error", err)
		}
	}()

	outcomes := sink.NewChannelSink(len(a.compiled))
	out, closeSink, err := a.buildSink(ctx, outcomes)
	if err != nil {
		return err
	}
	defer closeSink()

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for o := range outcomes.C() {
			a.logger.Info("Outcome received.", "agent", o.Agent, "run_id", o.RunID, "success", o.Success)
			a.recordOutcome(o)
		}
	}()

	runners, err := a.buildAgents(out)
	if err != nil {
		outcomes.Close()
		<-consumed
		return err
	}

	a.startHealthcheckServer(ctx)
	defer a.closeHealthCheckServer(ctx)

	if len(runners) == 0 {
		a.logger.Warn("No agents defined, execution not required.")
	} else {
		a.logger.Info("🚀 Starting agents...", "count", len(runners), "workers", a.config.WorkerCount)
	}
	report := supervisor.New(a.config.WorkerCount).Run(ctx, runners)

	outcomes.Close()
	<-consumed

	if ctx.Err() != nil {
		a.logger.Warn("Run interrupted, agents stopped.")
		return nil
	}
	if failed := report.Failed(); len(failed) > 0 {
		err := fmt.Errorf("%d of %d agents failed: %s", len(failed), len(runners), strings.Join(failed, ", "))
		return errors.Join(err, report.Err())
	}
	a.logger.Info("🏁 All agents succeeded.")
	return nil
}

// buildSink combines the in-process outcome channel with the Redis sink when
// one is configured. The returned close function is always safe to call.
func (a *App) buildSink(ctx context.Context, outcomes *sink.ChannelSink) (sink.Sink, func(), error) {
	if a.config.RedisURL == "" {
		return outcomes, func() {}, nil
	}

	key := a.config.RedisKey
	if key == "" {
		key = sink.DefaultRedisKey
	}
	rs, err := sink.NewRedisSink(ctx, a.config.RedisURL, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up outcome sink: %w", err)
	}
	a.logger.Info("Publishing outcomes to Redis.", "key", rs.Key())

	closeFn := func() {
		if err := rs.Close(); err != nil {
			a.logger.Warn("Failed to close Redis sink.", "error", err)
		}
	}
	return sink.MultiSink{outcomes, rs}, closeFn, nil
}

func (a *App) buildAgents(out sink.Sink) ([]supervisor.Runner, error) {
	agents := make([]*agent.Agent, 0, len(a.compiled))
	runners := make([]supervisor.Runner, 0, len(a.compiled))
	for _, c := range a.compiled {
		ag, err := agent.New(agent.Config{
			Name:      c.def.Name,
			Mode:      c.def.Mode,
			Chains:    c.chains,
			Interval:  c.def.Interval,
			Sink:      out,
			Verbosity: c.def.Verbosity,
		}, a.agentOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %w", err)
		}
		a.logger.Debug("Agent created.", "agent", ag.Name(), "run_id", ag.RunID(), "chains", ag.ChainNames())
		agents = append(agents, ag)
		runners = append(runners, ag)
	}

	a.mu.Lock()
	a.agents = agents
	a.mu.Unlock()
	return runners, nil
}
