package sync

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cardash/pkg/models"
)

func readLine(t *testing.T, r *bufio.Reader) map[string]any {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestServer_BroadcastToTCPClient(t *testing.T) {
	hub := NewHub()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(ln.Addr().String(), hub, nil)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	r := bufio.NewReader(conn)

	if msg := readLine(t, r); msg["type"] != "welcome" || msg["transport"] != "tcp" {
		t.Fatalf("unexpected welcome: %v", msg)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().TCPClients == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ev := NewRateEvent(models.Rate{Base: "USD", Quote: "NGN", Value: 1500, Source: "test"})
	if err := hub.BroadcastJSON(ev); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	msg := readLine(t, r)
	if msg["type"] != RateUpdateEvent {
		t.Fatalf("expected rate.update, got %v", msg["type"])
	}
	rate, _ := msg["rate"].(map[string]any)
	if rate["value"] != float64(1500) {
		t.Fatalf("unexpected rate payload: %v", rate)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after close")
	}
}

func TestWSHandler_ReceivesDatasetEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	router := gin.New()
	router.GET("/ws", WSHandler(hub))
	ts := httptest.NewServer(router)
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))

	_, first, err := ws.ReadMessage()
	if err != nil || !strings.Contains(string(first), `"websocket"`) {
		t.Fatalf("welcome: %s %v", first, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().WSClients == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := hub.BroadcastJSON(NewDatasetEvent(3, 1, "csv:test")); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	_, payload, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev DatasetEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != DatasetReloadEvent || ev.Rows != 3 || ev.Source != "csv:test" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	if err := hub.BroadcastJSON(map[string]string{"type": "noop"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if err := hub.BroadcastJSON(func() {}); err == nil {
		t.Fatal("expected marshal error")
	}
	hub.CloseAll()
	if s := hub.Stats(); s.TCPClients != 0 || s.WSClients != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}
