package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketTransportSplitsMessagesIntoLines(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err != nil || string(msg) != "AT^HCSQ?\r" {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("\r\n^HCSQ: \"LTE\",50,40,90,20\r\n"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("OK"))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	tr := NewWebSocketTransport("ws" + strings.TrimPrefix(srv.URL, "http"))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Close()

	lines, err := Command(ctx, tr, "AT^HCSQ?")
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	if len(lines) != 1 || lines[0] != `^HCSQ: "LTE",50,40,90,20` {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestWebSocketTransportRequiresURL(t *testing.T) {
	if err := NewWebSocketTransport("").Connect(context.Background()); err == nil {
		t.Fatalf("expected empty url error")
	}
}
