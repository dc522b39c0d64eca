// Package mailbox provides a generic, thread-safe single-slot latest-value
// cell. A Mailbox holds at most one pending item: each Put overwrites the
// previous pending item and Take drains the slot. It is the bounded
// alternative to a queue for producers that may burst faster than their
// consumer drains — staleness is preferred over completeness, and memory
// stays constant regardless of burst size.
package mailbox

import "sync"

// DropCallback is invoked with each item displaced by a newer Put.
type DropCallback[T any] func(item T)

// Option configures a Mailbox.
type Option[T any] func(*Mailbox[T])

// WithDropCallback registers a callback invoked whenever a pending item is
// overwritten before being taken.
func WithDropCallback[T any](cb DropCallback[T]) Option[T] {
	return func(m *Mailbox[T]) {
		m.onDrop = cb
	}
}

// Mailbox is a single-slot latest-value cell. All methods are safe for
// concurrent use.
type Mailbox[T any] struct {
	mu      sync.Mutex
	item    T
	full    bool
	puts    uint64
	drops   uint64
	onDrop  DropCallback[T]
}

// New creates an empty mailbox.
func New[T any](options ...Option[T]) *Mailbox[T] {
	m := &Mailbox[T]{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Put stores an item, displacing any pending item. The displaced item is
// counted as dropped and reported to the drop callback if one is set.
func (m *Mailbox[T]) Put(item T) {
	m.mu.Lock()
	dropped := m.item
	hadPending := m.full
	m.item = item
	m.full = true
	m.puts++
	if hadPending {
		m.drops++
	}
	cb := m.onDrop
	m.mu.Unlock()

	if hadPending && cb != nil {
		cb(dropped)
	}
}

// Take removes and returns the pending item. Returns the zero value and
// false when the mailbox is empty.
func (m *Mailbox[T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		var zero T
		return zero, false
	}

	item := m.item
	var zero T
	m.item = zero
	m.full = false
	return item, true
}

// Len reports whether an item is pending: 0 or 1.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return 1
	}
	return 0
}

// Puts returns the total number of items stored since creation.
func (m *Mailbox[T]) Puts() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Drops returns how many pending items were displaced before being taken.
func (m *Mailbox[T]) Drops() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drops
}

// Clear discards any pending item without counting a drop.
func (m *Mailbox[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.item = zero
	m.full = false
}
