package chain

import (
	"context"
	"fmt"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/ctyconv"
	"github.com/specialistvlad/chainrunner/internal/invoker"
	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/specialistvlad/chainrunner/internal/chain"

// ModuleInvoker runs a single module attempt.
type ModuleInvoker interface {
	Invoke(ctx context.Context, ref invoker.Ref, args module.Arguments) (module.Result, error)
}

// Executor runs chains for one agent. It is not safe for concurrent use by
// more than one agent, matching the one-goroutine-per-agent model.
type Executor struct {
	invoker ModuleInvoker
	policy  RetryPolicy
	sleep   Sleeper
	tracer  trace.Tracer

	attempts metric.Int64Counter
	retries  metric.Int64Counter
	runs     metric.Int64Counter
}

// Option customizes an Executor.
type Option func(*Executor)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Executor) { e.policy = p }
}

// WithSleeper replaces the backoff sleep, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) { e.sleep = s }
}

// NewExecutor creates an Executor that invokes modules through inv.
func NewExecutor(inv ModuleInvoker, opts ...Option) *Executor {
	e := &Executor{
		invoker: inv,
		policy:  DefaultRetryPolicy,
		sleep:   Sleep,
		tracer:  telemetry.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}

	meter := telemetry.Meter(instrumentationName)
	e.attempts = counter(meter, "chainrunner.step.attempts", "Module invocations, including retries.")
	e.retries = counter(meter, "chainrunner.step.retries", "Step attempts that were retried after a falsy result.")
	e.runs = counter(meter, "chainrunner.chain.runs", "Completed chain runs by outcome.")
	return e
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		c, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return c
}

// Policy returns the retry policy in effect.
func (e *Executor) Policy() RetryPolicy {
	return e.policy
}

// Run executes the steps of c in order and reports whether every step ended
// valid or ignored within its retry budget. A non-nil error means a module
// failed outright or ctx was cancelled; the boolean is then false.
func (e *Executor) Run(ctx context.Context, c *Chain) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("chain", c.Name)
	ctx, span := e.tracer.Start(ctx, "chain "+c.Name, trace.WithAttributes(
		attribute.String("chain.name", c.Name),
		attribute.Int("chain.steps", len(c.Steps)),
	))
	defer span.End()

	logger.Debug("Chain started.", "steps", len(c.Steps))

	var input module.Result
	for idx, step := range c.Steps {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return false, err
		}

		stepLogger := logger.With("step", idx, "module", step.Ref.Name)
		ok, output, err := e.runStep(ctxlog.WithLogger(ctx, stepLogger), idx, step, input)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("chain.name", c.Name), attribute.String("outcome", "error")))
			return false, err
		}
		if !ok {
			stepLogger.Error("Step exhausted its retry budget, aborting chain.", "attempts", e.policy.attempts(), "skipped_steps", len(c.Steps)-idx-1)
			span.SetStatus(codes.Error, "step exhausted retries")
			e.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("chain.name", c.Name), attribute.String("outcome", "failure")))
			return false, nil
		}
		if !step.IgnoreOutput {
			input = output
		}
	}

	logger.Debug("Chain finished.")
	e.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("chain.name", c.Name), attribute.String("outcome", "success")))
	return true, nil
}

// runStep attempts a single step until it yields a truthy result, the step
// ignores its output, or the retry budget is spent.
func (e *Executor) runStep(ctx context.Context, idx int, step Step, input module.Result) (bool, module.Result, error) {
	logger := ctxlog.FromContext(ctx)
	ctx, span := e.tracer.Start(ctx, "step "+step.Ref.Name, trace.WithAttributes(
		attribute.Int("step.index", idx),
		attribute.String("step.module", step.Ref.Name),
		attribute.String("step.function", step.Function),
	))
	defer span.End()

	args := step.Arguments(input)
	total := e.policy.attempts()
	modAttr := metric.WithAttributes(attribute.String("step.module", step.Ref.Name))

	for attempt := 1; attempt <= total; attempt++ {
		e.attempts.Add(ctx, 1, modAttr)
		result, err := e.invoker.Invoke(ctx, step.Ref, args)
		if err != nil {
			span.RecordError(err)
			return false, nil, err
		}

		if step.IgnoreOutput {
			logger.Debug("Step output ignored.")
			return true, nil, nil
		}

		logger.Debug("Result validation.", "type", fmt.Sprintf("%T", result), "result", ctyconv.ForLogs(result))
		if module.Truthy(result) {
			span.SetAttributes(attribute.Int("step.attempts", attempt))
			return true, result, nil
		}

		if attempt == total {
			break
		}
		if err := e.sleep(ctx, e.policy.Backoff); err != nil {
			return false, nil, err
		}
		logger.Warn("Retrying step.", "attempt", attempt, "attempts", total, "backoff", e.policy.Backoff)
		e.retries.Add(ctx, 1, modAttr)
	}

	span.SetAttributes(attribute.Int("step.attempts", total))
	span.SetStatus(codes.Error, "invalid result")
	return false, nil, nil
}
