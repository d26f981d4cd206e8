package flowstate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryStore is a thread-safe in-memory implementation of the Store interface.
// Flows do not survive a restart and are not shared between replicas.
type InMemoryStore struct {
	mu      sync.Mutex
	states  map[string]*FlowState
	nowTime func() time.Time
}

var (
	_ Store   = (*InMemoryStore)(nil)
	_ Cleaner = (*InMemoryStore)(nil)
)

type InMemoryOption func(*InMemoryStore)

// WithNowTime sets the clock used for expiry (primarily for testing)
func WithNowTime(nowFunc func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		s.nowTime = nowFunc
	}
}

// NewInMemoryStore creates a new in-memory flow state store
func NewInMemoryStore(options ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		states:  make(map[string]*FlowState),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Put stores or replaces the flow state
func (s *InMemoryStore) Put(_ context.Context, flowID string, state *FlowState) error {
	if err := ValidatePut(flowID, state); err != nil {
		return fmt.Errorf("[InMemoryStore Put] %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to prevent external modifications
	s.states[flowID] = state.Clone()
	return nil
}

// TakeAndInvalidate removes the flow state and returns it if it has not expired
func (s *InMemoryStore) TakeAndInvalidate(_ context.Context, flowID string) (*FlowState, error) {
	if flowID == "" {
		return nil, fmt.Errorf("[InMemoryStore TakeAndInvalidate] %w", errEmptyFlowID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.states[flowID]
	if !exists {
		return nil, fmt.Errorf("[InMemoryStore TakeAndInvalidate] %w", ErrNotFound)
	}
	delete(s.states, flowID)

	if state.Expired(s.nowTime()) {
		return nil, fmt.Errorf("[InMemoryStore TakeAndInvalidate] expired: %w", ErrNotFound)
	}
	return state, nil
}

// Cleanup purges expired entries and returns how many were removed
func (s *InMemoryStore) Cleanup(_ context.Context) (int, error) {
	now := s.nowTime()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, state := range s.states {
		if state.Expired(now) {
			delete(s.states, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
