// Package arena serializes work per conversation.
//
// Each conversation id maps to its own mutex, created on first use and
// released when the last holder or waiter is done, so unrelated
// conversations never contend with each other.
package arena

import "sync"

type slot struct {
	mu   sync.Mutex
	refs int
}

// Arena hands out per-key locks.
type Arena struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// New returns an empty Arena.
func New() *Arena {
	return &Arena{slots: make(map[string]*slot)}
}

// Acquire blocks until the caller holds the lock for id and returns the
// function that releases it. The release func must be called exactly once.
func (a *Arena) Acquire(id string) func() {
	a.mu.Lock()
	s, ok := a.slots[id]
	if !ok {
		s = &slot{}
		a.slots[id] = s
	}
	s.refs++
	a.mu.Unlock()

	s.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Unlock()

			a.mu.Lock()
			s.refs--
			if s.refs == 0 {
				delete(a.slots, id)
			}
			a.mu.Unlock()
		})
	}
}

// Do runs fn while holding the lock for id.
func (a *Arena) Do(id string, fn func()) {
	release := a.Acquire(id)
	defer release()
	fn()
}

// Len returns the number of keys currently held or waited on.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slots)
}
