package exchange

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cardash/pkg/models"
)

func writeMirror(t *testing.T, m MirrorFile) string {
	t.Helper()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "rates.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestMirrorHandler_ServesBothShapes(t *testing.T) {
	path := writeMirror(t, MirrorFile{Base: "USD", Rates: map[string]float64{"NGN": 1555}})
	srv := httptest.NewServer(MirrorHandler(path))
	defer srv.Close()

	ctx := context.Background()

	v, err := NewLatestSource(srv.URL).Fetch(ctx, "USD", "NGN")
	if err != nil || v != 1555 {
		t.Fatalf("latest: %v %v", v, err)
	}

	v, err = NewPairSource(srv.URL, "any-key").Fetch(ctx, "USD", "NGN")
	if err != nil || v != 1555 {
		t.Fatalf("pair: %v %v", v, err)
	}

	if _, err := NewPairSource(srv.URL, "any-key").Fetch(ctx, "USD", "JPY"); err == nil {
		t.Fatal("expected error for unknown quote")
	}
	if _, err := NewLatestSource(srv.URL).Fetch(ctx, "EUR", "NGN"); err == nil {
		t.Fatal("expected error for unknown base")
	}
}

func TestBuildMirror(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	if err := repo.Insert(ctx, models.Rate{Base: "USD", Quote: "NGN", Value: 1480, Source: "test", FetchedAt: at}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	m, err := BuildMirror(ctx, repo, "USD", []string{"NGN", "GHS"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(m.Rates) != 1 || m.Rates["NGN"] != 1480 || !m.Updated.Equal(at) {
		t.Fatalf("mirror = %+v", m)
	}
}
