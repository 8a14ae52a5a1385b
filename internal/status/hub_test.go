package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(logger.New(logger.LevelOff, nil))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return h, srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPublishReachesClient(t *testing.T) {
	h, srv := newTestHub(t)
	conn := dialWS(t, srv)

	h.Publish(domain.StatusUpdate{
		State:     domain.StateListening,
		Timestamp: time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg stateMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.State != "listening" {
		t.Errorf("state = %q, want listening", msg.State)
	}
	if msg.Timestamp == 0 {
		t.Error("timestamp missing")
	}
}

func TestNewClientGetsLastState(t *testing.T) {
	h, srv := newTestHub(t)

	h.Publish(domain.StatusUpdate{
		State:     domain.StateSpeaking,
		Text:      "Yes, Sir?",
		Timestamp: time.Now(),
	})

	conn := dialWS(t, srv)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg stateMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.State != "speaking" || msg.Text != "Yes, Sir?" {
		t.Errorf("msg = %+v, want last published state", msg)
	}
}

func TestStateEndpoint(t *testing.T) {
	h, srv := newTestHub(t)

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var idle map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&idle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if idle["state"] != "idle" {
		t.Errorf("initial state = %v, want idle", idle["state"])
	}

	h.Publish(domain.StatusUpdate{State: domain.StateThinking, Timestamp: time.Now()})

	resp2, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp2.Body.Close()

	var msg stateMessage
	if err := json.NewDecoder(resp2.Body).Decode(&msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.State != "thinking" {
		t.Errorf("state = %q, want thinking", msg.State)
	}
}

func TestPublishWithNoClientsDoesNotBlock(t *testing.T) {
	h := NewHub(logger.New(logger.LevelOff, nil))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(domain.StatusUpdate{State: domain.StateIdle, Timestamp: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without clients")
	}
}
