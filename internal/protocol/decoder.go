package protocol

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/yapchat/yap/internal/store"
)

// Join failure sentinels sent by the relay as bare strings.
const (
	SentinelInvalidCode    = "Invalid join code"
	SentinelInvalidMessage = "Invalid join message"
)

var bracketTagRe = regexp.MustCompile(`^\[(.+?)\]:\s*(.+)$`)

// wireFrame is the loose union of every structured frame the relay emits.
// Only the decoder is permitted to handle this unvalidated shape; everything
// past the decoder is a typed Event.
type wireFrame struct {
	Type           string            `json:"type"`
	ID             string            `json:"id"`
	Author         string            `json:"author"`
	Content        string            `json:"content"`
	Image          string            `json:"image"`
	Timestamp      int64             `json:"timestamp"`
	Edited         bool              `json:"edited"`
	ReadBy         map[string]int64  `json:"readBy"`
	ReplyTo        string            `json:"replyTo"`
	ReplyToAuthor  string            `json:"replyToAuthor"`
	ReplyToContent string            `json:"replyToContent"`
	TotalMembers   int               `json:"totalMembers"`
	OnlineMembers  int               `json:"onlineMembers"`
	MemberNames    []string          `json:"memberNames"`
	Messages       []json.RawMessage `json:"messages"`
}

// Decoder turns one raw inbound text frame into at most one Event, trying
// interpretations in strict priority order and stopping at the first match:
// join sentinels, structured JSON, the legacy [author]: payload tag, the
// legacy ***system*** broadcast, and finally raw passthrough text.
type Decoder struct {
	now func() time.Time

	mu         sync.Mutex
	lastMillis int64
	seq        int
}

// NewDecoder creates a decoder using wall-clock time for synthesized
// identifiers and timestamps.
func NewDecoder() *Decoder {
	return &Decoder{now: time.Now}
}

// Decode classifies a single raw frame.
func (d *Decoder) Decode(raw string) Result {
	data := strings.TrimSpace(raw)

	if data == SentinelInvalidCode || data == SentinelInvalidMessage {
		return Result{Kind: ResultJoinRejected, Sentinel: data}
	}

	if evt, ok := d.decodeJSON(data); ok {
		return Result{Kind: ResultEvent, Event: evt}
	}

	if m := bracketTagRe.FindStringSubmatch(data); m != nil {
		return Result{Kind: ResultEvent, Event: d.decodeBracketTag(m[1], m[2])}
	}

	if strings.HasPrefix(data, "***") && strings.HasSuffix(data, "***") {
		return Result{Kind: ResultEvent, Event: &Event{
			Type: EventSystem,
			System: &SystemNotice{
				ID:        d.syntheticID("sys", ""),
				Content:   strings.TrimSpace(strings.ReplaceAll(data, "***", "")),
				Timestamp: d.now().Unix(),
			},
		}}
	}

	return Result{Kind: ResultRaw, Raw: raw}
}

// decodeJSON attempts interpretation as a structured frame with a type tag.
func (d *Decoder) decodeJSON(data string) (*Event, bool) {
	var w wireFrame
	if err := json.Unmarshal([]byte(data), &w); err != nil || w.Type == "" {
		return nil, false
	}
	return d.frameToEvent(&w), true
}

// decodeBracketTag handles the legacy "[author]: payload" shape. A payload
// that itself parses as a typed frame is promoted, with the extracted author
// injected and missing id/timestamp synthesized; anything else becomes a
// plain text message with an empty reader set.
func (d *Decoder) decodeBracketTag(author, payload string) *Event {
	var w wireFrame
	if err := json.Unmarshal([]byte(payload), &w); err == nil && w.Type != "" {
		w.Author = author
		if w.ID == "" {
			w.ID = d.syntheticID("msg", author)
		}
		if w.Timestamp == 0 {
			w.Timestamp = d.now().Unix()
		}
		return d.frameToEvent(&w)
	}

	return &Event{
		Type: EventMessage,
		Message: &store.Message{
			ID:        d.syntheticID("msg", author),
			Author:    author,
			Content:   payload,
			Timestamp: d.now().Unix(),
			ReadBy:    map[string]int64{},
		},
	}
}

// frameToEvent converts a sniffed wire frame into its Event variant.
// Unrecognized type tags degrade to a system notice, matching how the
// relay's own web client displays them.
func (d *Decoder) frameToEvent(w *wireFrame) *Event {
	switch w.Type {
	case "message":
		return &Event{Type: EventMessage, Message: d.defaultMessage(w)}
	case "edit":
		return &Event{Type: EventEdit, Edit: &Edit{
			ID:      w.ID,
			Author:  w.Author,
			Content: w.Content,
		}}
	case "read_receipt":
		return &Event{Type: EventReadReceipt, Receipt: &ReadReceipt{
			ID:     w.ID,
			ReadBy: w.ReadBy,
		}}
	case "stats":
		return &Event{Type: EventStats, Stats: &RoomStats{
			TotalMembers:  w.TotalMembers,
			OnlineMembers: w.OnlineMembers,
			MemberNames:   w.MemberNames,
		}}
	case "history":
		evts := make([]*Event, 0, len(w.Messages))
		for _, rawMsg := range w.Messages {
			var nested wireFrame
			if err := json.Unmarshal(rawMsg, &nested); err != nil || nested.Type == "" {
				continue
			}
			evts = append(evts, d.frameToEvent(&nested))
		}
		return &Event{Type: EventHistory, History: evts}
	default:
		// "system" and every unknown tag render as a notice line.
		id := w.ID
		if id == "" {
			id = d.syntheticID("sys", "")
		}
		ts := w.Timestamp
		if ts == 0 {
			ts = d.now().Unix()
		}
		return &Event{Type: EventSystem, System: &SystemNotice{
			ID:        id,
			Content:   w.Content,
			Timestamp: ts,
		}}
	}
}

// defaultMessage fills the fields the store requires before insertion.
func (d *Decoder) defaultMessage(w *wireFrame) *store.Message {
	m := &store.Message{
		ID:             w.ID,
		Author:         w.Author,
		Content:        w.Content,
		Image:          w.Image,
		Timestamp:      w.Timestamp,
		Edited:         w.Edited,
		ReadBy:         w.ReadBy,
		ReplyTo:        w.ReplyTo,
		ReplyToAuthor:  w.ReplyToAuthor,
		ReplyToContent: w.ReplyToContent,
	}
	if m.Author == "" {
		m.Author = "Unknown"
	}
	if m.ID == "" {
		m.ID = d.syntheticID("msg", m.Author)
	}
	if m.Timestamp == 0 {
		m.Timestamp = d.now().Unix()
	}
	if m.ReadBy == nil {
		m.ReadBy = map[string]int64{}
	}
	return m
}

// syntheticID builds a best-effort unique identifier in the historical
// <prefix>_<unixMillis>_<author> shape. Two frames landing in the same
// millisecond get a sequence suffix so locally synthesized ids never
// collide; ids from other clients keep the bare shape and can still
// collide, which the protocol accepts.
func (d *Decoder) syntheticID(prefix, author string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	ms := d.now().UnixMilli()
	if ms == d.lastMillis {
		d.seq++
	} else {
		d.lastMillis = ms
		d.seq = 0
	}

	id := fmt.Sprintf("%s_%d", prefix, ms)
	if author != "" {
		id += "_" + author
	}
	if d.seq > 0 {
		id += fmt.Sprintf("-%d", d.seq)
	}
	return id
}
