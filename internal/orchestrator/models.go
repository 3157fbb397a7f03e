package orchestrator

// QueueEntry is one submitted URL. Insertion order is playback order.
type QueueEntry struct {
	URL string
}

// QueueState is the ordered list of entries plus a cursor. CurrentIndex is -1
// when nothing is selected, otherwise a valid index into Entries.
type QueueState struct {
	Entries      []QueueEntry
	CurrentIndex int
}

// URLs returns the entry URLs in order. The result is never nil.
func (s QueueState) URLs() []string {
	out := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, e.URL)
	}
	return out
}
