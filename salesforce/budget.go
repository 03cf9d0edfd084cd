package salesforce

import (
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Budget is the request allowance of one platform instance: a pace and an in-flight cap.
type Budget struct {
	limiter  *rate.Limiter
	inflight *semaphore.Weighted
}

// NewBudget paces requests to rps per second (rps <= 0 disables pacing) and allows at
// most maxConcurrent in flight (<= 0 removes the cap).
func NewBudget(rps float64, maxConcurrent int) *Budget {
	return &Budget{limiter: newLimiter(rps), inflight: newInflight(maxConcurrent)}
}

// Budgets hands out one Budget per instance URL, so every Client talking to the same
// org shares its allowance however many requests are being served.
type Budgets struct {
	mu            sync.Mutex
	rps           float64
	maxConcurrent int
	byInstance    map[string]*Budget
}

func NewBudgets(rps float64, maxConcurrent int) *Budgets {
	return &Budgets{
		rps:           rps,
		maxConcurrent: maxConcurrent,
		byInstance:    make(map[string]*Budget),
	}
}

// For returns the Budget of instanceURL, creating it on first use.
func (b *Budgets) For(instanceURL string) *Budget {
	key := strings.ToLower(strings.TrimRight(strings.TrimSpace(instanceURL), "/"))

	b.mu.Lock()
	defer b.mu.Unlock()

	budget, ok := b.byInstance[key]
	if !ok {
		budget = NewBudget(b.rps, b.maxConcurrent)
		b.byInstance[key] = budget
	}
	return budget
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func newInflight(n int) *semaphore.Weighted {
	if n <= 0 {
		return nil
	}
	return semaphore.NewWeighted(int64(n))
}
