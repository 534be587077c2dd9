package store

// Message is the canonical chat message entity. The JSON tags match the
// relay's wire format, so the same struct doubles as the `message` frame
// shape on the socket.
type Message struct {
	ID             string           `json:"id"`
	Author         string           `json:"author,omitempty"`
	Content        string           `json:"content"`
	Image          string           `json:"image,omitempty"`
	Timestamp      int64            `json:"timestamp"`
	Edited         bool             `json:"edited,omitempty"`
	ReadBy         map[string]int64 `json:"readBy,omitempty"`
	ReplyTo        string           `json:"replyTo,omitempty"`
	ReplyToAuthor  string           `json:"replyToAuthor,omitempty"`
	ReplyToContent string           `json:"replyToContent,omitempty"`
}

// Clone returns a deep copy. ReadBy is copied so callers can never mutate
// the stored entity through a returned message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	if m.ReadBy != nil {
		cp.ReadBy = make(map[string]int64, len(m.ReadBy))
		for k, v := range m.ReadBy {
			cp.ReadBy[k] = v
		}
	}
	return &cp
}
