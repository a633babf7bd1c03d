package rabbitmq

import "sync"

const maxTrackedMessages = 4096

// attemptTracker counts processing attempts per message id within this
// process. Requeued deliveries do not carry a broker-side attempt count
// (x-death only grows through dead-letter cycles), so the bound is
// enforced here. The map is capped; under pathological churn old entries
// are dropped and a poison message simply earns a fresh allowance.
type attemptTracker struct {
	mu       sync.Mutex
	attempts map[string]int
}

func newAttemptTracker() *attemptTracker {
	return &attemptTracker{attempts: make(map[string]int)}
}

func (t *attemptTracker) inc(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.attempts[key]; !ok && len(t.attempts) >= maxTrackedMessages {
		t.attempts = make(map[string]int)
	}
	t.attempts[key]++
	return t.attempts[key]
}

func (t *attemptTracker) reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, key)
}
