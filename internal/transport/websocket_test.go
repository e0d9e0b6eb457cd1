package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestWebSocketDialer_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if strings.TrimSpace(string(msg)) == "010D" {
				ws.WriteMessage(websocket.TextMessage, []byte("41 0D 50\r\r>"))
			}
		}
	}))
	defer srv.Close()

	conn, err := WebSocketDialer{}.Open(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	defer conn.Close()

	rec := newRecorder()
	conn.Subscribe(rec.handle)

	if err := conn.Write([]byte("010D\r")); err != nil {
		t.Fatalf("Write err=%v", err)
	}
	if ev := rec.next(t); ev.Line != "41 0D 50" {
		t.Errorf("event = %+v, want line 41 0D 50", ev)
	}
}

func TestWebSocketDialer_RejectsScheme(t *testing.T) {
	if _, err := (WebSocketDialer{}).Open(context.Background(), "http://localhost/obd"); err == nil {
		t.Fatalf("expected error for http scheme")
	}
}
