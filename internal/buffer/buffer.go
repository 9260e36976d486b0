// Package buffer holds the in-process memory tiers: the TTL-bounded sensory and
// short-term buffers and the fixed-capacity working set. None of them persist.
package buffer

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry is anything a Buffer can hold.
type Entry interface {
	EntryID() ulid.ULID
	ExpiresAtTime() time.Time
}

// Buffer is a capacity- and TTL-bounded queue. Entries are kept oldest first.
// Expired entries are only dropped when a read or cleanup call observes them.
type Buffer[T Entry] struct {
	mu         sync.Mutex
	entries    []T
	maxEntries int
	now        func() time.Time
}

func newBuffer[T Entry](maxEntries int, now func() time.Time) *Buffer[T] {
	if now == nil {
		now = time.Now
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Buffer[T]{
		entries:    make([]T, 0, maxEntries),
		maxEntries: maxEntries,
		now:        now,
	}
}

// push appends e, evicting the oldest entry when the buffer is full.
func (b *Buffer[T]) push(e T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) >= b.maxEntries {
		var zero T
		b.entries[0] = zero
		b.entries = b.entries[1:]
	}
	b.entries = append(b.entries, e)
}

// purgeLocked drops expired entries from the front. Caller holds mu.
func (b *Buffer[T]) purgeLocked() int {
	now := b.now()
	n := 0
	for n < len(b.entries) && !b.entries[n].ExpiresAtTime().After(now) {
		n++
	}
	if n == 0 {
		return 0
	}
	var zero T
	for i := 0; i < n; i++ {
		b.entries[i] = zero
	}
	b.entries = b.entries[n:]
	return n
}

// GetAll returns every live entry, newest first.
func (b *Buffer[T]) GetAll() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.purgeLocked()
	out := make([]T, 0, len(b.entries))
	for i := len(b.entries) - 1; i >= 0; i-- {
		out = append(out, b.entries[i])
	}
	return out
}

// GetByID returns the live entry with the given id.
func (b *Buffer[T]) GetByID(id ulid.ULID) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.purgeLocked()
	for _, e := range b.entries {
		if e.EntryID() == id {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// Remove deletes the entry regardless of its TTL and reports whether it was present.
func (b *Buffer[T]) Remove(id ulid.ULID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.entries {
		if e.EntryID() == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// CleanupExpired purges every expired entry and returns how many were dropped.
func (b *Buffer[T]) CleanupExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.purgeLocked()
}

// Size returns the number of held entries without purging.
func (b *Buffer[T]) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

// filter returns live entries matching keep, oldest first.
func (b *Buffer[T]) filter(keep func(T) bool) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.purgeLocked()
	var out []T
	for _, e := range b.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func newEntryID(at time.Time) ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy())
}
