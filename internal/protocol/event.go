package protocol

import "github.com/yapchat/yap/internal/store"

// EventType tags the closed set of decoded inbound events.
type EventType string

const (
	EventMessage     EventType = "message"
	EventEdit        EventType = "edit"
	EventReadReceipt EventType = "read_receipt"
	EventSystem      EventType = "system"
	EventStats       EventType = "stats"
	EventHistory     EventType = "history"
)

// Edit targets an existing message by ID.
type Edit struct {
	ID      string
	Author  string
	Content string
}

// ReadReceipt carries the full reader set the relay knows for a message.
type ReadReceipt struct {
	ID     string
	ReadBy map[string]int64
}

// SystemNotice is a broadcast line that bypasses the message store.
type SystemNotice struct {
	ID        string
	Content   string
	Timestamp int64
}

// RoomStats is the relay's membership snapshot.
type RoomStats struct {
	TotalMembers  int
	OnlineMembers int
	MemberNames   []string
}

// Event is the typed representation of one inbound protocol occurrence.
// Exactly one payload field matching Type is set. Events are transient:
// they are consumed by the reconciler and never persisted.
type Event struct {
	Type    EventType
	Message *store.Message
	Edit    *Edit
	Receipt *ReadReceipt
	System  *SystemNotice
	Stats   *RoomStats
	History []*Event
}

// ResultKind classifies the outcome of decoding one raw frame.
type ResultKind int

const (
	// ResultEvent means the frame decoded to a typed Event.
	ResultEvent ResultKind = iota
	// ResultJoinRejected means the frame was one of the relay's join
	// failure sentinels. Not an event; the session aborts the join.
	ResultJoinRejected
	// ResultRaw means the frame matched no known shape. The text is
	// passed through to rendering unaltered and never reaches the store.
	ResultRaw
)

// Result is the decoder's verdict on a single frame.
type Result struct {
	Kind     ResultKind
	Event    *Event
	Sentinel string
	Raw      string
}
