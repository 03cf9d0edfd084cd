package loginsession

import (
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-field-analyzer/auth"
)

// DefaultIdleTTL is how long an unused browsing context is kept.
const DefaultIdleTTL = 2 * time.Hour

type browsingContext struct {
	manager   *auth.Manager
	expiresAt time.Time
}

// InMemoryLoginSessionRepo is an in-memory implementation of Repo. A context expires
// after idleTTL without use and is purged on the next write.
type InMemoryLoginSessionRepo struct {
	mu         sync.Mutex
	contexts   map[string]*browsingContext // contextID -> context
	newManager ManagerFactory
	idleTTL    time.Duration
	nowTime    func() time.Time
}

type InMemoryLoginSessionRepoOption func(*InMemoryLoginSessionRepo)

// WithIdleTTL overrides DefaultIdleTTL. ttl <= 0 keeps contexts until deleted.
func WithIdleTTL(ttl time.Duration) InMemoryLoginSessionRepoOption {
	return func(r *InMemoryLoginSessionRepo) {
		r.idleTTL = ttl
	}
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) InMemoryLoginSessionRepoOption {
	return func(r *InMemoryLoginSessionRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryLoginSessionRepo creates a new in-memory browsing context registry
func NewInMemoryLoginSessionRepo(newManager ManagerFactory, options ...InMemoryLoginSessionRepoOption) *InMemoryLoginSessionRepo {
	r := &InMemoryLoginSessionRepo{
		contexts:   make(map[string]*browsingContext),
		newManager: newManager,
		idleTTL:    DefaultIdleTTL,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Get returns the manager of an existing browsing context and extends its lifetime
func (r *InMemoryLoginSessionRepo) Get(contextID string) (*auth.Manager, error) {
	if contextID == "" {
		return nil, fmt.Errorf("contextID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contexts[contextID]
	if !ok || r.expired(c) {
		delete(r.contexts, contextID)
		return nil, ErrNotFound
	}
	r.touch(c)
	return c.manager, nil
}

// GetOrCreate returns the manager of a browsing context, creating it on first use
func (r *InMemoryLoginSessionRepo) GetOrCreate(contextID string) (*auth.Manager, error) {
	if contextID == "" {
		return nil, fmt.Errorf("contextID is required")
	}
	if r.newManager == nil {
		return nil, fmt.Errorf("manager factory is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeExpired()

	if c, ok := r.contexts[contextID]; ok {
		r.touch(c)
		return c.manager, nil
	}
	m, err := r.newManager()
	if err != nil {
		return nil, fmt.Errorf("[InMemoryLoginSessionRepo.GetOrCreate] %w", err)
	}
	c := &browsingContext{manager: m}
	r.touch(c)
	r.contexts[contextID] = c
	return m, nil
}

// Delete forgets a browsing context
func (r *InMemoryLoginSessionRepo) Delete(contextID string) error {
	if contextID == "" {
		return fmt.Errorf("contextID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.contexts, contextID)
	return nil
}

// Len reports how many unexpired browsing contexts are tracked
func (r *InMemoryLoginSessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.contexts {
		if !r.expired(c) {
			n++
		}
	}
	return n
}

func (r *InMemoryLoginSessionRepo) touch(c *browsingContext) {
	if r.idleTTL > 0 {
		c.expiresAt = r.nowTime().Add(r.idleTTL)
	}
}

func (r *InMemoryLoginSessionRepo) expired(c *browsingContext) bool {
	return !c.expiresAt.IsZero() && r.nowTime().After(c.expiresAt)
}

// purgeExpired must be called with the lock held.
func (r *InMemoryLoginSessionRepo) purgeExpired() {
	for id, c := range r.contexts {
		if r.expired(c) {
			delete(r.contexts, id)
		}
	}
}
