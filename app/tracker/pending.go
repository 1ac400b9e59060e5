package tracker

import (
	"github.com/umputun/capwatch/app/capture"
)

// pendingSet is a set of job keys with an outstanding size probe.
// Not thread safe, all access goes under Tracker.mu.
type pendingSet struct {
	active map[capture.Key]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{active: make(map[capture.Key]struct{})}
}

// Add key to the set, fail if already in
func (p *pendingSet) Add(key capture.Key) bool {
	if _, found := p.active[key]; found {
		return false
	}
	p.active[key] = struct{}{}
	return true
}

// Remove key from the set. Safe to call multiple times
func (p *pendingSet) Remove(key capture.Key) {
	delete(p.active, key)
}

// Len returns number of pending keys
func (p *pendingSet) Len() int {
	return len(p.active)
}
