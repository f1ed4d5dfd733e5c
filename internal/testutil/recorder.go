package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/registry"
)

// RecorderCall is one observed invocation of the recorder module.
type RecorderCall struct {
	ID    string
	Mode  string
	Input any
}

// RecorderModule registers a "recorder" module that remembers every call and
// returns its "result" argument, or its input when none is given.
type RecorderModule struct {
	mu    sync.Mutex
	calls []RecorderCall
}

// Calls returns every call in order.
func (m *RecorderModule) Calls() []RecorderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecorderCall(nil), m.calls...)
}

// CallsFor returns the calls made by steps with the given id.
func (m *RecorderModule) CallsFor(id string) []RecorderCall {
	var out []RecorderCall
	for _, c := range m.Calls() {
		if c.ID == id {
			out = append(out, c)
		}
	}
	return out
}

// Register registers the "recorder" module.
func (m *RecorderModule) Register(r *registry.Registry) {
	r.Register("recorder", func(mode string, args module.Arguments) (any, error) {
		s := args.Settings
		id, err := s.StringArg("id", "")
		if err != nil {
			return nil, err
		}
		result := s.Input
		if _, ok := s.Arg("result"); ok {
			if result, err = s.AnyArg("result"); err != nil {
				return nil, err
			}
		}
		return module.RunFunc(func(context.Context) (module.Result, error) {
			m.mu.Lock()
			m.calls = append(m.calls, RecorderCall{ID: id, Mode: mode, Input: s.Input})
			m.mu.Unlock()
			return result, nil
		}), nil
	})
}
