//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Grounded on: connection-pool shape from the examples pack (mutex-guarded
// slice of reusable entries, bounded capacity, scan-for-free-entry acquire).
//

package pool

import "sync"

// Sessionish is the small capability a [Pool] entry must offer: whether it
// is currently busy, and how to tear it down on release. [*session.Session]
// satisfies this.
type Sessionish interface {
	comparable
	InUse() bool
	Close() error
}

// Pool is the bounded, reusable container of spec §4.3: at most Capacity
// entries, created lazily, acquired by scanning for the first non-InUse
// entry in creation order.
type Pool[S Sessionish] struct {
	newEntry func() S

	mu       sync.Mutex
	capacity int
	entries  []S
}

// New builds a [*Pool] with the given capacity. newEntry constructs a fresh
// S (e.g. a new session bound to a fresh transport) whenever Acquire needs
// to grow the pool.
func New[S Sessionish](capacity int, newEntry func() S) *Pool[S] {
	return &Pool[S]{newEntry: newEntry, capacity: capacity}
}

// Acquire returns a non-InUse entry. It scans entries in creation order for
// the first one that is free (O(n) per spec §4.3); if none is free and the
// pool has room, it creates one, runs initializer on it exactly once, and
// adds it to the pool. If the pool is at capacity with every entry InUse,
// Acquire returns the zero value and false — not an error (spec §4.3:
// "returning none is not an error").
func (p *Pool[S]) Acquire(initializer func(S)) (S, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if !e.InUse() {
			return e, true
		}
	}
	if len(p.entries) >= p.capacity {
		var zero S
		return zero, false
	}

	e := p.newEntry()
	initializer(e)
	p.entries = append(p.entries, e)
	return e, true
}

// Release removes s from the pool and shuts it down. Releasing a session
// that is not a member of the pool is a no-op other than closing it.
func (p *Pool[S]) Release(s S) error {
	p.mu.Lock()
	for i, e := range p.entries {
		if e == s {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	return s.Close()
}

// WithPoolSize adjusts the capacity ceiling. Entries already in the pool
// beyond the new ceiling are not evicted; they simply stop being
// replenished once freed, since Acquire's capacity check is evaluated
// against len(entries) at acquire time.
func (p *Pool[S]) WithPoolSize(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.capacity = n
}

// Len reports the number of entries currently held by the pool.
func (p *Pool[S]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Close shuts down and forgets every entry, per the ownership summary of
// spec §3 ("destruction of the pool closes all entries").
func (p *Pool[S]) Close() error {
	p.mu.Lock()
	entries := p.entries
	p.entries = nil
	p.mu.Unlock()

	var firstErr error
	for _, e := range entries {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
