package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/registry"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// It records the execution time of each step that uses it, keyed by the
// step's "id" argument, and returns true.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Record returns the execution record of id.
func (m *MockSleeperModule) Record(id string) (ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ExecutionTimes[id]
	if !ok {
		return ExecutionRecord{}, false
	}
	return *r, true
}

// Register registers the "sleeper" module.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	r.Register("sleeper", func(_ string, args module.Arguments) (any, error) {
		id, err := args.Settings.StringArg("id", "")
		if err != nil {
			return nil, err
		}
		return module.RunFunc(func(ctx context.Context) (module.Result, error) {
			startTime := time.Now()
			select {
			case <-time.After(m.sleepDuration):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			endTime := time.Now()

			m.mu.Lock()
			m.ExecutionTimes[id] = &ExecutionRecord{Start: startTime, End: endTime}
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- id
			}
			return true, nil
		}), nil
	})
}
