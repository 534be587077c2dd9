package chat

import (
	"errors"

	"github.com/yapchat/yap/internal/protocol"
	"github.com/yapchat/yap/internal/status"
	"github.com/yapchat/yap/internal/store"
)

// ErrNotActive is returned for sends attempted outside the Active state.
var ErrNotActive = errors.New("not connected to a room")

// StartReply arms the reply cursor at the given message. Arming a reply
// cancels any pending edit: the two cursors are mutually exclusive. Returns
// the target for the composer to preview.
func (s *Session) StartReply(id string) (*store.Message, error) {
	target, ok := s.store.Get(id)
	if !ok {
		return nil, protocol.ErrUnknownMessage
	}
	s.mu.Lock()
	s.replyTo = id
	s.editing = ""
	s.mu.Unlock()
	return target, nil
}

// StartEdit arms the edit cursor at one of the local user's own messages,
// cancelling any pending reply. Returns the target so the composer can
// prefill its content.
func (s *Session) StartEdit(id string) (*store.Message, error) {
	target, ok := s.store.Get(id)
	if !ok {
		return nil, protocol.ErrUnknownMessage
	}
	if target.Author != s.name {
		return nil, protocol.ErrNotOwnMessage
	}
	s.mu.Lock()
	s.editing = id
	s.replyTo = ""
	s.mu.Unlock()
	return target, nil
}

// CancelCompose clears both cursors.
func (s *Session) CancelCompose() {
	s.mu.Lock()
	s.replyTo = ""
	s.editing = ""
	s.mu.Unlock()
}

// ComposeState reports the armed cursors for the composer's mode line.
func (s *Session) ComposeState() (replyTo, editing string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replyTo, s.editing
}

// Send submits the composed input. With the edit cursor armed it becomes an
// edit of the targeted message; otherwise it is a new message, carrying the
// reply snapshot if the reply cursor is armed. The store is not touched
// here — the relay's echo is what lands the message locally. The consumed
// cursor clears only after a successful write.
func (s *Session) Send(content, image string) error {
	if s.machine.Current() != status.Active {
		return ErrNotActive
	}
	s.mu.Lock()
	replyTo, editing := s.replyTo, s.editing
	s.mu.Unlock()

	var payload []byte
	var err error
	if editing != "" {
		payload, err = s.builder.Edit(editing, content)
	} else {
		payload, err = s.builder.Send(content, image, replyTo)
	}
	if err != nil {
		return err
	}
	if err := s.conn.Send(string(payload)); err != nil {
		return err
	}
	s.CancelCompose()
	return nil
}
