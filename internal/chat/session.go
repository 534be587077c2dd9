package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yapchat/yap/internal/bus"
	"github.com/yapchat/yap/internal/protocol"
	"github.com/yapchat/yap/internal/status"
	"github.com/yapchat/yap/internal/store"
	intsync "github.com/yapchat/yap/internal/sync"
	"github.com/yapchat/yap/internal/transport"
	"go.uber.org/zap"
)

// Archive is the durable-history collaborator. Both operations are
// best-effort: failures are logged and never block the live stream.
type Archive interface {
	Append(ctx context.Context, room string, m *store.Message) error
	FetchRecent(ctx context.Context, room string, limit int) ([]*store.Message, error)
	LogJoin(ctx context.Context, name, room string) error
}

// Transport is the duplex text channel a session owns. Satisfied by
// *transport.Conn; tests substitute an in-memory pipe.
type Transport interface {
	Listen(onFrame func(string), onClose func(error))
	Send(text string) error
	Close() error
}

// Dialer opens a transport. Swappable for tests.
type Dialer func(ctx context.Context, url string) (Transport, error)

// Options tune one session.
type Options struct {
	ServerURL    string
	HistoryLimit int
	ReceiptDelay time.Duration
	Dial         Dialer
}

// Session owns everything scoped to one room membership: the transport
// handle, the message store, the reconciler, and the compose cursors.
// It is created on join and discarded on leave; a new join builds a new
// session.
type Session struct {
	name string
	room string
	opts Options

	store   *store.Store
	decoder *protocol.Decoder
	builder *protocol.Builder
	rec     *intsync.Reconciler
	machine *status.Machine
	archive Archive
	bus     *bus.Bus
	logger  *zap.Logger

	conn Transport

	mu      sync.Mutex
	replyTo string
	editing string
	ended   bool
}

// NewSession assembles a session for the given identity and room. Join must
// be called before the session is live.
func NewSession(name, room string, opts Options, arch Archive, b *bus.Bus, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ReceiptDelay <= 0 {
		opts.ReceiptDelay = 500 * time.Millisecond
	}
	if opts.Dial == nil {
		opts.Dial = func(ctx context.Context, url string) (Transport, error) {
			return transport.Dial(ctx, url, logger)
		}
	}

	st := store.New()
	return &Session{
		name:    name,
		room:    room,
		opts:    opts,
		store:   st,
		decoder: protocol.NewDecoder(),
		builder: protocol.NewBuilder(st, name),
		rec:     intsync.New(st, b, logger),
		machine: status.NewMachine(b),
		archive: arch,
		bus:     b,
		logger: logger.With(
			zap.String("room", room),
			zap.String("session_id", uuid.NewString())),
	}
}

// Join opens the transport and performs the join handshake. The session is
// JoinPending until the relay's first non-sentinel frame arrives.
func (s *Session) Join(ctx context.Context) error {
	if err := s.machine.Transition(status.Connecting); err != nil {
		return err
	}

	conn, err := s.opts.Dial(ctx, s.opts.ServerURL)
	if err != nil {
		_ = s.machine.Transition(status.Disconnected)
		return err
	}
	s.conn = conn

	payload, err := s.builder.Join(s.name, s.room)
	if err != nil {
		s.teardown()
		return err
	}
	if err := conn.Send(string(payload)); err != nil {
		s.teardown()
		return err
	}
	_ = s.machine.Transition(status.JoinPending)
	s.logger.Info("join sent", zap.String("name", s.name))

	conn.Listen(s.handleFrame, s.handleClose)
	return nil
}

// State returns the session lifecycle state.
func (s *Session) State() status.State {
	return s.machine.Current()
}

// Store exposes the message store for rendering.
func (s *Session) Store() *store.Store {
	return s.store
}

// Room returns the joined room code.
func (s *Session) Room() string { return s.room }

// Name returns the local display name.
func (s *Session) Name() string { return s.name }

// handleFrame runs on the transport's read pump, one frame at a time in
// arrival order.
func (s *Session) handleFrame(raw string) {
	res := s.decoder.Decode(raw)

	if res.Kind == protocol.ResultJoinRejected {
		s.logger.Warn("join rejected", zap.String("sentinel", res.Sentinel))
		if s.machine.Current() == status.Active {
			// Rejection after going live is a full leave.
			s.Leave()
			return
		}
		s.teardown()
		s.publish("session.join_rejected", res.Sentinel)
		return
	}

	// The first non-sentinel frame acknowledges the join.
	if s.machine.Current() == status.JoinPending {
		if s.machine.Transition(status.Active) == nil {
			s.logger.Info("session active")
			go s.loadHistory()
		}
	}

	switch res.Kind {
	case protocol.ResultEvent:
		inserted := s.rec.Apply(res.Event)
		s.afterInsert(inserted)
	case protocol.ResultRaw:
		// Unrecognized text renders as-is and never reaches the store.
		s.publish("room.raw", res.Raw)
	}
}

// afterInsert runs the per-message side effects for newly stored messages:
// a delayed read receipt, and an archive append for the local user's own
// messages once the relay has assigned their id.
func (s *Session) afterInsert(ids []string) {
	for _, id := range ids {
		s.scheduleReceipt(id)
		if m, ok := s.store.Get(id); ok && m.Author == s.name {
			go s.appendArchive(m)
		}
	}
}

// scheduleReceipt emits a read receipt for a message after the configured
// delay, emulating "seen". Fire-and-forget: the timer is never cancelled
// and becomes a no-op once the session has ended.
func (s *Session) scheduleReceipt(id string) {
	time.AfterFunc(s.opts.ReceiptDelay, func() {
		s.mu.Lock()
		ended := s.ended
		s.mu.Unlock()
		if ended {
			return
		}
		if _, ok := s.store.Get(id); !ok {
			return
		}
		payload, err := s.builder.ReadReceipt(id)
		if err != nil {
			return
		}
		if err := s.conn.Send(string(payload)); err != nil {
			s.logger.Debug("read receipt send failed", zap.Error(err), zap.String("id", id))
		}
	})
}

// loadHistory performs the one archive fetch of the session and replays it
// through the reconciler's merge path. A failure here is logged and
// swallowed: the live stream stays authoritative for display.
func (s *Session) loadHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.archive.LogJoin(ctx, s.name, s.room); err != nil {
		s.logger.Warn("join audit failed", zap.Error(err))
	}

	records, err := s.archive.FetchRecent(ctx, s.room, s.opts.HistoryLimit)
	if err != nil {
		s.logger.Warn("history fetch failed", zap.Error(err))
		return
	}
	inserted := s.rec.ReplayArchive(records)
	for _, id := range inserted {
		s.scheduleReceipt(id)
	}
}

func (s *Session) appendArchive(m *store.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.archive.Append(ctx, s.room, m); err != nil {
		s.logger.Warn("archive append failed", zap.Error(err), zap.String("id", m.ID))
	}
}

// handleClose fires once when the transport's read pump exits. A close
// while Active surfaces a single local notice; there is no auto-reconnect.
func (s *Session) handleClose(err error) {
	s.mu.Lock()
	alreadyEnded := s.ended
	s.ended = true
	s.mu.Unlock()
	if alreadyEnded {
		return
	}

	if s.machine.Current() == status.Active {
		s.publish("room.system", &protocol.SystemNotice{
			Content:   "Disconnected from server",
			Timestamp: time.Now().Unix(),
		})
	}
	if err != nil {
		s.logger.Warn("transport closed with error", zap.Error(err))
	}
	_ = s.machine.Transition(status.Disconnected)
}

// Leave ends the session: best-effort quit notice, transport teardown, and
// a full local reset — message store, compose cursors, room membership.
// Pending receipt timers find the state gone and do nothing.
func (s *Session) Leave() {
	s.mu.Lock()
	wasEnded := s.ended
	s.ended = true
	s.replyTo = ""
	s.editing = ""
	s.mu.Unlock()

	if !wasEnded && s.conn != nil {
		if err := s.conn.Send(protocol.QuitNotice); err != nil {
			s.logger.Debug("quit notice not delivered", zap.Error(err))
		}
	}
	s.teardown()
	s.store.Reset()
	s.publish("session.left", s.room)
	s.logger.Info("session left")
}

// teardown closes the transport and lands the machine in Disconnected.
func (s *Session) teardown() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.machine.Current() != status.Disconnected {
		_ = s.machine.Transition(status.Disconnected)
	}
}

func (s *Session) publish(kind string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
