package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport carries AT traffic over a websocket bridge. Each text
// message may hold any number of lines.
type WebSocketTransport struct {
	url    string
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	lines   lineBuffer
	writeMu sync.Mutex
}

func NewWebSocketTransport(url string) *WebSocketTransport {
	return &WebSocketTransport{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 6 * time.Second,
		},
	}
}

func (t *WebSocketTransport) Name() string {
	return "websocket"
}

func (t *WebSocketTransport) StatusTarget() string {
	return t.url
}

func (t *WebSocketTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	logger := linkLogger("websocket", "url", t.url)
	if t.conn != nil {
		return nil
	}
	if t.url == "" {
		return errors.New("websocket url is empty")
	}

	conn, resp, err := t.dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		logger.Warn("connect failed", "error", err)

		return fmt.Errorf("dial websocket: %w", err)
	}
	t.conn = conn
	t.lines.reset()
	logger.Info("connected")

	return nil
}

func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	err := t.conn.Close()
	t.conn = nil

	return err
}

// ReadLine returns the next buffered line. A read deadline hit leaves the
// websocket unusable, so callers reconnect after a timeout.
func (t *WebSocketTransport) ReadLine(ctx context.Context) (string, error) {
	conn, err := t.currentConn()
	if err != nil {
		return "", err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}

	line, err := readLine(ctx, &t.lines, func(p []byte) (int, error) {
		return t.readMessage(conn, p)
	})
	if err != nil {
		return "", fmt.Errorf("read line: %w", err)
	}

	return line, nil
}

// readMessage feeds whole messages into the line buffer directly and reports
// zero bytes, so chunk size never truncates a message.
func (t *WebSocketTransport) readMessage(conn *websocket.Conn, _ []byte) (int, error) {
	kind, payload, err := conn.ReadMessage()
	if err != nil {
		return 0, err
	}
	if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
		return 0, nil
	}
	if err := t.lines.feed(append(payload, '\n')); err != nil {
		return 0, err
	}

	return 0, nil
}

func (t *WebSocketTransport) WriteLine(ctx context.Context, line string) error {
	conn, err := t.currentConn()
	if err != nil {
		return err
	}
	raw, err := encodeLine(line)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("write line: %w", err)
	}

	return nil
}

func (t *WebSocketTransport) currentConn() (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, errors.New("transport is not connected")
	}

	return t.conn, nil
}
