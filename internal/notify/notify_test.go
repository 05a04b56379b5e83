package notify

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"testing"
	"time"
)

func TestServer_RegisterAndBroadcast(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	reg := NewRegistry()
	srv := NewServer("", reg, log.New(io.Discard, "", 0))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(conn) }()

	client, err := net.DialUDP("udp", nil, conn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Write([]byte(`{"type":"register","client_id":"kiosk-1"}`)); err != nil {
		t.Fatalf("register: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for reg.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := srv.BroadcastJSON(map[string]any{"type": "rate.update", "value": 1500}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf[:n], &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["type"] != "rate.update" {
		t.Fatalf("unexpected payload %v", got)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("serve returned %v", err)
	}
}

func TestParseRegisterMessage(t *testing.T) {
	if _, err := parseRegisterMessage([]byte(`{"type":"register"}`)); err == nil {
		t.Fatal("expected error without client_id")
	}
	if _, err := parseRegisterMessage([]byte(`nope`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
	msg, err := parseRegisterMessage([]byte(`{"type":"register","client_id":"a"}`))
	if err != nil || msg.ClientID != "a" {
		t.Fatalf("parse: %+v %v", msg, err)
	}
}

func TestBroadcastBeforeRun(t *testing.T) {
	srv := NewServer(":0", NewRegistry(), log.New(io.Discard, "", 0))
	if err := srv.BroadcastJSON(map[string]string{"type": "x"}); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}
