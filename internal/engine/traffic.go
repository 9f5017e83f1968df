package engine

import "sync"

// TrafficSet accumulates distinct pseudonym tokens between dispatch
// cycles. Recording the same token twice within a cycle is a no-op.
type TrafficSet struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

func NewTrafficSet() *TrafficSet {
	return &TrafficSet{tokens: make(map[string]struct{})}
}

func (t *TrafficSet) Record(token string) {
	if token == "" {
		return
	}
	t.mu.Lock()
	t.tokens[token] = struct{}{}
	t.mu.Unlock()
}

// Count is a non-draining peek for the status API.
func (t *TrafficSet) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tokens)
}

// Drain returns the distinct-token count and resets the set. A drained
// count is spent; a failed dispatch does not restore it.
func (t *TrafficSet) Drain() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.tokens)
	t.tokens = make(map[string]struct{})
	return n
}
