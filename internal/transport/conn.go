package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	handshakeTimeout = 15 * time.Second
	writeTimeout     = 10 * time.Second
)

// Conn is the duplex text channel to the relay. It is owned exclusively by
// the session: nothing else writes to or closes it.
type Conn struct {
	ws     *websocket.Conn
	logger *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens a websocket connection to the relay.
func Dial(ctx context.Context, url string, logger *zap.Logger) (*Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	logger.Info("transport connected", zap.String("url", url))
	return &Conn{
		ws:     ws,
		logger: logger,
		closed: make(chan struct{}),
	}, nil
}

// Listen starts the read pump. onFrame is invoked for every inbound text
// frame in arrival order on a single goroutine, which is the ordering
// guarantee the reconciler relies on. onClose fires exactly once when the
// pump exits; err is nil for a clean closure or local Close.
func (c *Conn) Listen(onFrame func(frame string), onClose func(err error)) {
	go func() {
		for {
			msgType, data, err := c.ws.ReadMessage()
			if err != nil {
				select {
				case <-c.closed:
					onClose(nil)
				default:
					if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						onClose(nil)
					} else {
						c.logger.Warn("transport read failed", zap.Error(err))
						onClose(err)
					}
				}
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			onFrame(string(data))
		}
	}()
}

// Send writes one text frame. Safe for concurrent use; gorilla allows only
// one writer at a time.
func (c *Conn) Send(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closed:
		return fmt.Errorf("send on closed transport")
	default:
	}

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// Close tears the connection down. Idempotent.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		deadline := time.Now().Add(writeTimeout)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		err = c.ws.Close()
		c.logger.Info("transport closed")
	})
	return err
}
