package store

import (
	"sort"
	"sync"
)

// Store is the keyed in-memory message store for one room session.
// The message ID is the sole merge key: no two entries ever share an ID.
// All accessors return deep copies; the store exclusively owns its entities.
type Store struct {
	mu       sync.RWMutex
	messages map[string]*Message
	order    []string // insertion order, used as tiebreaker for equal timestamps
}

// New creates an empty message store.
func New() *Store {
	return &Store{
		messages: make(map[string]*Message),
	}
}

// Insert adds or replaces the message under its ID. A second insert for a
// known ID is a replacement (last writer wins on every field); reconciliation
// replay must use Merge instead so accumulated state survives. Returns false
// if the message has no ID.
func (s *Store) Insert(m *Message) bool {
	if m == nil || m.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, known := s.messages[m.ID]; !known {
		s.order = append(s.order, m.ID)
	}
	s.messages[m.ID] = m.Clone()
	return true
}

// Merge is the insert used by the reconciliation path. An unknown ID is
// stored verbatim and Merge reports true (a new entry). For a known ID the
// incoming copy is treated as older data arriving late: it only fills fields
// the stored entry lacks and never regresses Edited or shrinks ReadBy.
func (s *Store) Merge(in *Message) (inserted bool) {
	if in == nil || in.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, known := s.messages[in.ID]
	if !known {
		s.order = append(s.order, in.ID)
		s.messages[in.ID] = in.Clone()
		return true
	}

	if cur.Content == "" && in.Content != "" {
		cur.Content = in.Content
	}
	if cur.Image == "" && in.Image != "" {
		cur.Image = in.Image
	}
	if cur.Timestamp == 0 && in.Timestamp != 0 {
		cur.Timestamp = in.Timestamp
	}
	if cur.Author == "" || cur.Author == "Unknown" {
		if in.Author != "" {
			cur.Author = in.Author
		}
	}
	if cur.ReplyTo == "" && in.ReplyTo != "" {
		cur.ReplyTo = in.ReplyTo
		cur.ReplyToAuthor = in.ReplyToAuthor
		cur.ReplyToContent = in.ReplyToContent
	}
	if in.Edited && !cur.Edited {
		cur.Content = in.Content
		cur.Edited = true
	}
	for reader, at := range in.ReadBy {
		if cur.ReadBy == nil {
			cur.ReadBy = make(map[string]int64, len(in.ReadBy))
		}
		if _, seen := cur.ReadBy[reader]; !seen {
			cur.ReadBy[reader] = at
		}
	}
	return false
}

// ApplyEdit sets the content of a known message and marks it edited.
// Edits can race ahead of their target's insert; an unknown ID is a no-op
// and reports false.
func (s *Store) ApplyEdit(id, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return false
	}
	m.Content = content
	m.Edited = true
	return true
}

// ApplyReadReceipt unions readers into the stored ReadBy set. The set only
// grows: an incoming subset never removes readers already recorded.
// Unknown IDs are a no-op and report false.
func (s *Store) ApplyReadReceipt(id string, readBy map[string]int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return false
	}
	for reader, at := range readBy {
		if m.ReadBy == nil {
			m.ReadBy = make(map[string]int64, len(readBy))
		}
		if _, seen := m.ReadBy[reader]; !seen {
			m.ReadBy[reader] = at
		}
	}
	return true
}

// Get returns a copy of the message with the given ID.
func (s *Store) Get(id string) (*Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// All returns copies of every message ordered by timestamp ascending,
// with insertion order breaking ties.
func (s *Store) All() []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos := make(map[string]int, len(s.order))
	for i, id := range s.order {
		pos[id] = i
	}

	out := make([]*Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return pos[out[i].ID] < pos[out[j].ID]
	})
	return out
}

// Reset discards all messages. Called on leave; receipt timers that fire
// afterwards find their targets gone and become no-ops.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make(map[string]*Message)
	s.order = nil
}
