package agent

import (
	"context"
	"time"

	"github.com/specialistvlad/chainrunner/internal/chain"
	"github.com/specialistvlad/chainrunner/internal/ctxlog"
)

// ClientPhase drives the CLIENT chain, either once or on a fixed interval.
type ClientPhase struct {
	Chain *chain.Chain

	// Interval is the pause in seconds between passes; below 1 means a single
	// pass.
	Interval int

	exec   ChainRunner
	sleep  chain.Sleeper
	passes int

	onState func(ClientState)
	onPass  func()
}

// NewClientPhase returns a phase that runs c through exec and waits between
// passes with sleep.
func NewClientPhase(c *chain.Chain, interval int, exec ChainRunner, sleep chain.Sleeper) *ClientPhase {
	return &ClientPhase{Chain: c, Interval: interval, exec: exec, sleep: sleep}
}

func (p *ClientPhase) transition(s ClientState) {
	if p.onState != nil {
		p.onState(s)
	}
}

// Passes returns how many times the chain has been run.
func (p *ClientPhase) Passes() int {
	return p.passes
}

// Run executes the CLIENT chain. In looping mode it only returns on the first
// failed pass, a module error or cancellation, so a nil error always comes
// with false there.
func (p *ClientPhase) Run(ctx context.Context) (bool, error) {
	logger := ctxlog.FromContext(ctx)
	defer p.transition(ClientStopped)

	if p.Interval < 1 {
		p.transition(ClientRunOnce)
		logger.Info("Client chain running once.")
		ok, err := p.pass(ctx)
		if err == nil && !ok {
			ctxlog.Critical(ctx, logger, "Client chain failed.")
		}
		return ok, err
	}

	interval := time.Duration(p.Interval) * time.Second
	p.transition(ClientLooping)
	logger.Info("Client chain looping.", "interval", interval)

	for {
		ok, err := p.pass(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			ctxlog.Critical(ctx, logger, "Client chain failed, stopping loop.", "passes", p.passes)
			return false, nil
		}

		logger.Debug("Client pass succeeded, waiting for next pass.", "passes", p.passes, "interval", interval)
		if err := p.sleep(ctx, interval); err != nil {
			return false, err
		}
	}
}

func (p *ClientPhase) pass(ctx context.Context) (bool, error) {
	ok, err := p.exec.Run(ctx, p.Chain)
	p.passes++
	if p.onPass != nil {
		p.onPass()
	}
	return ok, err
}
