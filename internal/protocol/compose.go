package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yapchat/yap/internal/store"
)

// QuitNotice is the bare non-JSON leave notice. It is the only outbound
// frame that is not a JSON object.
const QuitNotice = "/quit"

var (
	// ErrEmptyMessage is returned for a send with neither text nor image.
	ErrEmptyMessage = errors.New("message needs text or an image")
	// ErrNotOwnMessage is returned when editing a message the local user
	// did not author. The relay enforces nothing; this check is the only
	// guard.
	ErrNotOwnMessage = errors.New("can only edit your own messages")
	// ErrUnknownMessage is returned when an edit targets an id the store
	// has never seen.
	ErrUnknownMessage = errors.New("unknown message")
)

// Builder validates and serializes local user intents into wire frames.
// It reads the message store to resolve reply and edit targets but never
// mutates it: the relay echoes every accepted frame back, and the echo is
// what reaches the store.
type Builder struct {
	store *store.Store
	self  string
}

// NewBuilder creates a builder for the given local display name.
func NewBuilder(s *store.Store, displayName string) *Builder {
	return &Builder{store: s, self: displayName}
}

type joinFrame struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type messageFrame struct {
	Type           string `json:"type"`
	Author         string `json:"author"`
	Content        string `json:"content"`
	Image          string `json:"image,omitempty"`
	ReplyTo        string `json:"replyTo,omitempty"`
	ReplyToAuthor  string `json:"replyToAuthor,omitempty"`
	ReplyToContent string `json:"replyToContent,omitempty"`
}

// Join serializes the join handshake payload.
func (b *Builder) Join(name, code string) ([]byte, error) {
	if name == "" || code == "" {
		return nil, errors.New("join needs a name and a room code")
	}
	return json.Marshal(joinFrame{Type: "join", Name: name, Code: code})
}

// Send builds a plain message frame. replyTo may be empty; when set and the
// target is known, the target's author and content are captured into the
// frame as a denormalized snapshot taken now — later edits of the target do
// not retroactively change it. An unknown reply target degrades to a plain
// send rather than failing.
func (b *Builder) Send(content, image, replyTo string) ([]byte, error) {
	if content == "" && image == "" {
		return nil, ErrEmptyMessage
	}
	f := messageFrame{
		Type:    "message",
		Author:  b.self,
		Content: content,
		Image:   image,
	}
	if replyTo != "" {
		if target, ok := b.store.Get(replyTo); ok {
			f.ReplyTo = replyTo
			f.ReplyToAuthor = target.Author
			f.ReplyToContent = target.Content
		}
	}
	return json.Marshal(f)
}

// Edit builds an edit frame for a message the local user authored.
func (b *Builder) Edit(id, content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}
	target, ok := b.store.Get(id)
	if !ok {
		return nil, ErrUnknownMessage
	}
	if target.Author != b.self {
		return nil, fmt.Errorf("edit %s: %w", id, ErrNotOwnMessage)
	}
	return json.Marshal(struct {
		Type    string `json:"type"`
		ID      string `json:"id"`
		Content string `json:"content"`
	}{Type: "edit", ID: id, Content: content})
}

// ReadReceipt builds a fire-and-forget seen marker for a message.
func (b *Builder) ReadReceipt(id string) ([]byte, error) {
	if id == "" {
		return nil, ErrUnknownMessage
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}{Type: "read_receipt", ID: id})
}
