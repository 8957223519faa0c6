// Package optimistic applies local state changes before network
// confirmation and reverts them when the call fails.
package optimistic

import (
	"context"
	"sync"
)

// Mutator runs optimistic mutations over state of type S. Mutations on the
// same key are serialized in FIFO order so a slow call's rollback can never
// clobber a newer mutation's optimistic value. Mutations on different keys
// run independently.
type Mutator[S any] struct {
	// Get returns the current value for a key.
	Get func(key string) S
	// Set stores a value for a key.
	Set func(key string, value S)
	// OnError is invoked once per failed mutation, after rollback. Optional.
	OnError func(key string, err error)

	mu    sync.Mutex
	tails map[string]chan struct{}
}

// New creates a mutator bound to the given state accessors.
func New[S any](get func(string) S, set func(string, S), onError func(string, error)) *Mutator[S] {
	return &Mutator[S]{
		Get:     get,
		Set:     set,
		OnError: onError,
		tails:   make(map[string]chan struct{}),
	}
}

// acquire joins the FIFO queue for key and blocks until it is this caller's
// turn. The returned release function hands the queue to the next waiter.
func (m *Mutator[S]) acquire(key string) (release func()) {
	next := make(chan struct{})

	m.mu.Lock()
	prev := m.tails[key]
	m.tails[key] = next
	m.mu.Unlock()

	if prev != nil {
		<-prev
	}

	return func() {
		m.mu.Lock()
		if m.tails[key] == next {
			delete(m.tails, key)
		}
		m.mu.Unlock()
		close(next)
	}
}

// Run computes the optimistic value from the current one, applies it, issues
// call with that value, and restores the snapshot on failure. The error (if
// any) is both reported through OnError and returned, so foreground callers
// can surface it once.
//
// update runs inside the key's queue slot. A mutation that waited its turn
// therefore bases its value on whatever the earlier mutation left behind,
// not on the state it saw when it was issued.
func (m *Mutator[S]) Run(ctx context.Context, key string, update func(S) S, call func(context.Context, S) error) error {
	release := m.acquire(key)
	defer release()

	snapshot := m.Get(key)
	value := update(snapshot)
	m.Set(key, value)

	if err := call(ctx, value); err != nil {
		m.Set(key, snapshot)
		if m.OnError != nil {
			m.OnError(key, err)
		}
		return err
	}
	return nil
}

// RunReconcile is Run with a server-confirmed value: on success the state is
// reconciled with what the call returned rather than left at the optimistic
// guess.
func (m *Mutator[S]) RunReconcile(ctx context.Context, key string, update func(S) S, call func(context.Context, S) (S, error)) error {
	release := m.acquire(key)
	defer release()

	snapshot := m.Get(key)
	value := update(snapshot)
	m.Set(key, value)

	confirmed, err := call(ctx, value)
	if err != nil {
		m.Set(key, snapshot)
		if m.OnError != nil {
			m.OnError(key, err)
		}
		return err
	}
	m.Set(key, confirmed)
	return nil
}
