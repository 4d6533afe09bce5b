package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/registry"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// It records the execution time of each node that runs its handler.
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

// Register registers the "OnRunSleeper" handler.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	r.RegisterHandler("OnRunSleeper", func(ctx context.Context, ec *recipe.ExecContext) (*recipe.Result, error) {
		startTime := time.Now()
		select {
		case <-time.After(m.sleepDuration):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		endTime := time.Now()

		m.mu.Lock()
		m.ExecutionTimes[ec.NodeID] = &ExecutionRecord{Start: startTime, End: endTime}
		m.mu.Unlock()

		if m.completionChan != nil {
			m.completionChan <- ec.NodeID
		}
		return &recipe.Result{Success: true, Data: ec.NodeID}, nil
	})
}

// Record returns the execution record for nodeID.
func (m *MockSleeperModule) Record(nodeID string) (*ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ExecutionTimes[nodeID]
	return r, ok
}
