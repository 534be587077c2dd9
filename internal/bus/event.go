package bus

import "time"

// Event represents a domain event published on the bus.
//
// Kinds in use: "message.inserted", "message.updated", "message.read",
// "room.system", "room.stats", "room.raw", "session.status_changed",
// "session.join_rejected", "session.left".
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
