// Package trigger coalesces regeneration requests into one pending flag per cycle.
package trigger

import "sync/atomic"

// Trigger collects zero-payload regeneration requests. Any number of Request
// calls between two Consume calls collapse into a single pending cycle.
// It is safe for concurrent use.
type Trigger struct {
	pending   atomic.Bool
	requested atomic.Uint64
	coalesced atomic.Uint64
}

// Request marks a regeneration as pending. Repeated calls within a cycle are no-ops.
func (t *Trigger) Request() {
	t.requested.Add(1)
	if !t.pending.CompareAndSwap(false, true) {
		t.coalesced.Add(1)
	}
}

// Pending reports whether a request is waiting, without clearing it.
func (t *Trigger) Pending() bool {
	return t.pending.Load()
}

// Consume reports whether at least one request arrived since the last call and clears the flag.
func (t *Trigger) Consume() bool {
	return t.pending.Swap(false)
}

// Stats returns the total number of requests and how many were absorbed by an
// already pending cycle.
func (t *Trigger) Stats() (requested, coalesced uint64) {
	return t.requested.Load(), t.coalesced.Load()
}
