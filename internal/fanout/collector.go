package fanout

import (
	"sync"
	"time"
)

// ExecutionResult is the terminal outcome of one provider task. It is
// created exactly once per provider per dispatch and never mutated after
// collection.
type ExecutionResult struct {
	ProviderID string
	// Duration is wall clock time from dispatch start to the outcome.
	Duration time.Duration
	// Text is the aggregated model output. Valid when Err is nil.
	Text string
	// Err is the provider's failure, passed through unwrapped so callers
	// can branch on its kind.
	Err error
	// Incomplete marks text preserved from a cancelled stream.
	Incomplete bool
}

// Succeeded reports whether the provider produced usable output.
func (r ExecutionResult) Succeeded() bool {
	return r.Err == nil
}

// collector joins task outcomes. It is the single synchronisation point of
// a dispatch; provider tasks share nothing else.
type collector struct {
	mu      sync.Mutex
	results []ExecutionResult
}

func newCollector(capacity int) *collector {
	return &collector{results: make([]ExecutionResult, 0, capacity)}
}

func (c *collector) add(result ExecutionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// take returns the collected results. No ordering guarantee is made;
// callers must key by ProviderID.
func (c *collector) take() []ExecutionResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}
