package orchestrator

// Store is the persistence abstraction for queue state.
// The Repository uses Store for all reads and writes; callers of Repository
// do not need to know which Store is used.
type Store interface {
	Load() QueueState
	Save(st QueueState)
}

// InMemoryStore keeps the queue in process memory. The queue does not
// survive a restart.
type InMemoryStore struct {
	state QueueState
}

// NewInMemoryStore returns an empty store with no current entry.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{state: QueueState{CurrentIndex: -1}}
}

// Load implements Store.Load. The returned entries are a copy.
func (s *InMemoryStore) Load() QueueState {
	return QueueState{
		Entries:      append([]QueueEntry(nil), s.state.Entries...),
		CurrentIndex: s.state.CurrentIndex,
	}
}

// Save implements Store.Save.
func (s *InMemoryStore) Save(st QueueState) {
	s.state = QueueState{
		Entries:      append([]QueueEntry(nil), st.Entries...),
		CurrentIndex: st.CurrentIndex,
	}
}
