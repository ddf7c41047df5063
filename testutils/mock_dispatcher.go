package testutils

import (
	"context"
	"sync"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// MockDispatcher records every dispatched signal in memory.
type MockDispatcher struct {
	mu      sync.RWMutex
	signals []*types.Signal
	// Err, when set, is returned by Dispatch after recording.
	Err error
}

func NewMockDispatcher() *MockDispatcher { return &MockDispatcher{} }

func (m *MockDispatcher) Dispatch(_ context.Context, s *types.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, s)
	return m.Err
}

// Signals returns a copy of all dispatched signals (useful for assertions).
func (m *MockDispatcher) Signals() []*types.Signal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Signal, len(m.signals))
	copy(out, m.signals)
	return out
}
