package agent

import (
	"context"

	"github.com/specialistvlad/chainrunner/internal/chain"
	"github.com/specialistvlad/chainrunner/internal/ctxlog"
)

// RegistrationPhase runs the REG chain exactly once.
type RegistrationPhase struct {
	Chain *chain.Chain

	exec    ChainRunner
	onState func(RegistrationState)
}

// NewRegistrationPhase returns a phase that runs c through exec.
func NewRegistrationPhase(c *chain.Chain, exec ChainRunner) *RegistrationPhase {
	return &RegistrationPhase{Chain: c, exec: exec}
}

func (p *RegistrationPhase) transition(s RegistrationState) {
	if p.onState != nil {
		p.onState(s)
	}
}

// Run executes the registration chain. It reports true only when every step
// succeeded. There is no retry beyond the per-step retries of the executor.
func (p *RegistrationPhase) Run(ctx context.Context) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	p.transition(RegistrationRunning)
	logger.Info("Registration started.", "steps", len(p.Chain.Steps))

	ok, err := p.exec.Run(ctx, p.Chain)
	if err != nil {
		if ctx.Err() == nil {
			p.transition(RegistrationFailed)
			ctxlog.Critical(ctx, logger, "Registration aborted by a module error.", "error", err)
		}
		return false, err
	}
	if !ok {
		p.transition(RegistrationFailed)
		ctxlog.Critical(ctx, logger, "Registration failed, client chain will not run.")
		return false, nil
	}

	p.transition(Registered)
	logger.Info("Registration succeeded.")
	return true, nil
}
