package flowstate

import (
	"errors"
	"sync"
	"time"
)

// InMemoryRepo is a thread-safe in-memory Repo. Entries live at most ttl and vanish
// with the process, so a verifier never reaches durable storage.
type InMemoryRepo struct {
	mu      sync.RWMutex
	flows   map[string]*FlowState
	ttl     time.Duration
	nowTime func() time.Time
}

type InMemoryRepoOption func(*InMemoryRepo)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory flow state repository. A ttl <= 0 disables expiry.
func NewInMemoryRepo(ttl time.Duration, options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		flows:   make(map[string]*FlowState),
		ttl:     ttl,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Upsert stores or replaces the flow state for key
func (r *InMemoryRepo) Upsert(key string, flow *FlowState) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if flow == nil {
		return errors.New("flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeExpired()

	// Copy to prevent external modifications
	stored := *flow
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.nowTime()
	}
	r.flows[key] = &stored
	return nil
}

// Get retrieves the flow state for key
func (r *InMemoryRepo) Get(key string) (*FlowState, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, exists := r.flows[key]
	if !exists || r.expired(flow) {
		return nil, ErrNotFound
	}

	copied := *flow
	return &copied, nil
}

// Take removes and returns the flow state for key
func (r *InMemoryRepo) Take(key string) (*FlowState, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	flow, exists := r.flows[key]
	if !exists {
		return nil, ErrNotFound
	}
	delete(r.flows, key)
	if r.expired(flow) {
		return nil, ErrNotFound
	}
	return flow, nil
}

// Delete removes the flow state for key
func (r *InMemoryRepo) Delete(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flows, key)
	return nil
}

// Len reports how many unexpired flows are stored.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, flow := range r.flows {
		if !r.expired(flow) {
			n++
		}
	}
	return n
}

func (r *InMemoryRepo) expired(flow *FlowState) bool {
	return r.ttl > 0 && r.nowTime().Sub(flow.CreatedAt) > r.ttl
}

// purgeExpired must be called with the write lock held.
func (r *InMemoryRepo) purgeExpired() {
	for key, flow := range r.flows {
		if r.expired(flow) {
			delete(r.flows, key)
		}
	}
}
