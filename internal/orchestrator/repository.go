package orchestrator

import (
	"fmt"
	"sync"

	"cast-orchestrator/internal/domain"
)

// Repository defines the concurrency-safe contract for reading and mutating
// queue state. Every mutation keeps -1 <= CurrentIndex < len(Entries).
type Repository interface {
	// Append adds url at the end and returns its index.
	Append(url string) int

	// Entry returns the entry at i. ok is false when i is out of range.
	Entry(i int) (entry QueueEntry, ok bool)

	// Remove deletes the entry at i and shifts the cursor so it keeps pointing
	// at the same logical entry, or to -1 if that entry was removed.
	// wasCurrent reports the latter. An out-of-range i returns ErrInvalidIndex.
	Remove(i int) (removed QueueEntry, wasCurrent bool, err error)

	// SetCurrent moves the cursor. Values outside the valid range select -1.
	SetCurrent(i int)

	// Clear drops all entries and resets the cursor.
	Clear()

	// Snapshot returns a copy of the queue state.
	Snapshot() QueueState
}

// InMemoryRepository is a concurrency-safe implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// Append implements Repository.Append.
func (r *InMemoryRepository) Append(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.store.Load()
	st.Entries = append(st.Entries, QueueEntry{URL: url})
	r.store.Save(st)
	return len(st.Entries) - 1
}

// Entry implements Repository.Entry.
func (r *InMemoryRepository) Entry(i int) (QueueEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := r.store.Load()
	if i < 0 || i >= len(st.Entries) {
		return QueueEntry{}, false
	}
	return st.Entries[i], true
}

// Remove implements Repository.Remove.
func (r *InMemoryRepository) Remove(i int) (QueueEntry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.store.Load()
	if i < 0 || i >= len(st.Entries) {
		return QueueEntry{}, false, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, i)
	}

	removed := st.Entries[i]
	st.Entries = append(st.Entries[:i], st.Entries[i+1:]...)

	wasCurrent := false
	switch {
	case i == st.CurrentIndex:
		st.CurrentIndex = -1
		wasCurrent = true
	case i < st.CurrentIndex:
		st.CurrentIndex--
	}

	r.store.Save(st)
	return removed, wasCurrent, nil
}

// SetCurrent implements Repository.SetCurrent.
func (r *InMemoryRepository) SetCurrent(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.store.Load()
	if i < 0 || i >= len(st.Entries) {
		i = -1
	}
	st.CurrentIndex = i
	r.store.Save(st)
}

// Clear implements Repository.Clear.
func (r *InMemoryRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Save(QueueState{CurrentIndex: -1})
}

// Snapshot implements Repository.Snapshot.
func (r *InMemoryRepository) Snapshot() QueueState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Load()
}
