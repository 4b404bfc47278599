package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Temutjin2k/driver-presence/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewConnHub(logger.Nop())
	upgrader := websocket.Upgrader{}
	added := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConn(context.Background(), uuid.New(), raw)
		_ = hub.Add(conn)
		close(added)
		_ = conn.Listen(func([]byte) error { return nil })
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	select {
	case <-added:
	case <-ctx.Done():
		t.Fatalf("server never registered the connection")
	}

	if n := hub.Broadcast(ctx, map[string]string{"type": "ping"}); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}

	got := make(chan map[string]string, 1)
	go func() {
		_ = client.Listen(func(data []byte) error {
			var msg map[string]string
			_ = json.Unmarshal(data, &msg)
			got <- msg
			return nil
		})
	}()

	select {
	case msg := <-got:
		if msg["type"] != "ping" {
			t.Fatalf("unexpected message: %v", msg)
		}
	case <-ctx.Done():
		t.Fatalf("message never arrived")
	}

	hub.Close()
	if hub.Len() != 0 {
		t.Fatalf("hub must be empty after Close")
	}
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer raw.Close()
		for {
			if _, _, err := raw.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	client, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	_ = client.Close()
	_ = client.Close()

	if err := client.Send(map[string]string{"a": "b"}); err != ErrConnClosed {
		t.Fatalf("expected ErrConnClosed, got %v", err)
	}
}
