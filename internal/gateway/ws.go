package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jdelaire/tgrambot/core"
	"github.com/jdelaire/tgrambot/core/event"
)

const writeTimeout = 10 * time.Second

// Frame is one update relayed to the gateway.
type Frame struct {
	Type       string       `json:"type"`
	DispatchID string       `json:"dispatch_id,omitempty"`
	Update     *event.Event `json:"update"`
}

// Forwarder relays dispatched updates to a gateway over a WebSocket. The
// connection is dialled on first use and redialled once after a failed write.
type Forwarder struct {
	url    string
	token  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewForwarder creates a forwarder for the gateway at url.
func NewForwarder(url, token string, logger *slog.Logger) *Forwarder {
	return &Forwarder{url: url, token: token, logger: logger}
}

// Handler returns a handler that forwards events of type t.
func (f *Forwarder) Handler(t core.UpdateType) core.Handler {
	return func(ctx context.Context, e *event.Event) error {
		return f.Send(ctx, Frame{Type: t.String(), DispatchID: core.DispatchID(ctx), Update: e})
	}
}

// Send writes one frame, connecting first if needed.
func (f *Forwarder) Send(ctx context.Context, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if f.conn == nil {
			if err := f.connect(ctx); err != nil {
				return err
			}
		}
		f.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := f.conn.WriteMessage(websocket.TextMessage, data)
		if err == nil {
			return nil
		}
		f.conn.Close()
		f.conn = nil
		if attempt > 0 {
			return fmt.Errorf("write frame: %w", err)
		}
		f.logger.Warn("gateway write failed, reconnecting", "error", err)
	}
}

func (f *Forwarder) connect(ctx context.Context) error {
	header := http.Header{}
	if f.token != "" {
		header.Set("Authorization", "Bearer "+f.token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, header)
	if err != nil {
		return fmt.Errorf("connect to gateway: %w", err)
	}
	f.conn = conn
	f.logger.Info("connected to gateway", "url", f.url)
	return nil
}

// Close closes the gateway connection, if open.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn == nil {
		return nil
	}
	f.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := f.conn.Close()
	f.conn = nil
	return err
}
