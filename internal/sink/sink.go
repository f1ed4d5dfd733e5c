// Package sink delivers agent outcomes. Every agent publishes exactly one
// Outcome at the end of its lifetime; a Sink may be shared by many agents and
// must be safe for concurrent use.
package sink

import (
	"context"
	"errors"
	"time"
)

// Outcome is the final result of one agent run.
type Outcome struct {
	Agent      string    `json:"agent"`
	RunID      string    `json:"run_id"`
	Success    bool      `json:"success"`
	FinishedAt time.Time `json:"finished_at"`
}

// Sink receives outcomes. Publish may block until the outcome is accepted or
// ctx is done.
type Sink interface {
	Publish(ctx context.Context, o Outcome) error
}

// ChannelSink hands outcomes to an in-process consumer.
type ChannelSink struct {
	ch chan Outcome
}

// NewChannelSink returns a ChannelSink whose channel holds up to buffer
// outcomes before Publish blocks.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Outcome, buffer)}
}

// C returns the channel outcomes are delivered on.
func (s *ChannelSink) C() <-chan Outcome {
	return s.ch
}

// Publish sends o, blocking until a reader takes it, buffer space frees up or
// ctx is done.
func (s *ChannelSink) Publish(ctx context.Context, o Outcome) error {
	select {
	case s.ch <- o:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel so a ranging consumer stops. Publish must not be
// called afterwards.
func (s *ChannelSink) Close() {
	close(s.ch)
}

// MultiSink publishes every outcome to all of its sinks in order. A failing
// sink does not stop delivery to the rest.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, o Outcome) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, o Outcome) error

func (f Func) Publish(ctx context.Context, o Outcome) error {
	return f(ctx, o)
}
