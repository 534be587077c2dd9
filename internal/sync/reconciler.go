package sync

import (
	"time"

	"github.com/yapchat/yap/internal/bus"
	"github.com/yapchat/yap/internal/protocol"
	"github.com/yapchat/yap/internal/store"
	"go.uber.org/zap"
)

// Reconciler drives the message store from the two event producers — the
// live stream and the archive replay — through one dispatch path, so the
// exact same idempotent merge semantics apply no matter which source sees
// a message first. Every applied mutation is published on the bus with the
// fully merged entity so rendering stays idempotent against repeats.
type Reconciler struct {
	store  *store.Store
	bus    *bus.Bus
	logger *zap.Logger
}

// New creates a reconciler over the given store.
func New(s *store.Store, b *bus.Bus, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: s, bus: b, logger: logger}
}

// Apply processes one decoded event. History events unwrap and recurse
// through this same handler, so nested stats/system members behave exactly
// like live ones. Returns the ids of messages the store had not seen
// before this event.
func (r *Reconciler) Apply(evt *protocol.Event) []string {
	if evt == nil {
		return nil
	}
	switch evt.Type {
	case protocol.EventMessage:
		if r.applyMessage(evt.Message) {
			return []string{evt.Message.ID}
		}
	case protocol.EventEdit:
		r.applyEdit(evt.Edit)
	case protocol.EventReadReceipt:
		r.applyReceipt(evt.Receipt)
	case protocol.EventSystem:
		r.publish("room.system", evt.System)
	case protocol.EventStats:
		r.publish("room.stats", evt.Stats)
	case protocol.EventHistory:
		var inserted []string
		for _, nested := range evt.History {
			inserted = append(inserted, r.Apply(nested)...)
		}
		return inserted
	}
	return nil
}

// ReplayArchive pushes one fetched archive batch through the message merge.
// Replayed copies are older data arriving late: a message already edited or
// read locally keeps that state, and the replay only fills fields the live
// copy lacked. Returns the ids the replay newly inserted.
func (r *Reconciler) ReplayArchive(records []*store.Message) []string {
	var inserted []string
	for _, rec := range records {
		if r.applyMessage(rec) {
			inserted = append(inserted, rec.ID)
		}
	}
	r.logger.Info("archive replayed",
		zap.Int("records", len(records)),
		zap.Int("new", len(inserted)))
	return inserted
}

func (r *Reconciler) applyMessage(m *store.Message) bool {
	if m == nil || m.ID == "" {
		return false
	}
	inserted := r.store.Merge(m)
	merged, _ := r.store.Get(m.ID)
	if inserted {
		r.publish("message.inserted", merged)
	} else {
		r.publish("message.updated", merged)
	}
	return inserted
}

func (r *Reconciler) applyEdit(e *protocol.Edit) {
	if e == nil {
		return
	}
	// Edits can outrun the insert they target; the gap is dropped, not
	// queued.
	if !r.store.ApplyEdit(e.ID, e.Content) {
		r.logger.Debug("edit for unknown message dropped", zap.String("id", e.ID))
		return
	}
	merged, _ := r.store.Get(e.ID)
	r.publish("message.updated", merged)
}

func (r *Reconciler) applyReceipt(rc *protocol.ReadReceipt) {
	if rc == nil {
		return
	}
	if !r.store.ApplyReadReceipt(rc.ID, rc.ReadBy) {
		r.logger.Debug("receipt for unknown message dropped", zap.String("id", rc.ID))
		return
	}
	merged, _ := r.store.Get(rc.ID)
	r.publish("message.read", merged)
}

func (r *Reconciler) publish(kind string, payload any) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
