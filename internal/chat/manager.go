package chat

import (
	"context"
	"sync"
	"time"

	"github.com/yapchat/yap/internal/bus"
	"github.com/yapchat/yap/internal/config"
	"go.uber.org/zap"
)

// Manager owns at most one live session. Joining a new room tears the
// previous session down first, so room membership is always exclusive.
type Manager struct {
	cfg     *config.Config
	archive Archive
	bus     *bus.Bus
	logger  *zap.Logger
	dial    Dialer

	mu      sync.Mutex
	current *Session
}

// NewManager creates a session manager.
func NewManager(cfg *config.Config, arch Archive, b *bus.Bus, logger *zap.Logger) *Manager {
	return &Manager{cfg: cfg, archive: arch, bus: b, logger: logger}
}

// SetDialer overrides the transport dialer. Tests use this to run sessions
// over an in-memory pipe.
func (m *Manager) SetDialer(d Dialer) { m.dial = d }

// Join leaves any current session and starts a new one for the given
// identity and room.
func (m *Manager) Join(ctx context.Context, name, room string) (*Session, error) {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()
	if prev != nil {
		prev.Leave()
	}

	s := NewSession(name, room, Options{
		ServerURL:    m.cfg.ServerURL,
		HistoryLimit: m.cfg.HistoryLimit,
		ReceiptDelay: time.Duration(m.cfg.ReceiptDelayMS) * time.Millisecond,
		Dial:         m.dial,
	}, m.archive, m.bus, m.logger)

	if err := s.Join(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s, nil
}

// Current returns the live session, or nil when not joined.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Leave ends the current session if there is one.
func (m *Manager) Leave() {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()
	if s != nil {
		s.Leave()
	}
}

// Close implements shutdown teardown.
func (m *Manager) Close() error {
	m.Leave()
	return nil
}
