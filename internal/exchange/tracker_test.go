package exchange

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cardash/pkg/database"
	"cardash/pkg/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(database.Config{
		Path:        filepath.Join(t.TempDir(), "rates.db"),
		BusyTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type stubFetcher struct {
	value float64
	err   error
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, base, quote string) (float64, string, error) {
	f.calls++
	if f.err != nil {
		return 0, "", f.err
	}
	return f.value, "stub", nil
}

func TestTracker_DefaultBeforeFetch(t *testing.T) {
	tr := NewTracker(TrackerOpts{Default: 1}, &stubFetcher{}, nil, quietLogger())
	cur := tr.Current()
	if cur.Value != 1 || cur.Base != "USD" || cur.Quote != "NGN" || cur.Source != "default" {
		t.Fatalf("unexpected default %+v", cur)
	}
}

func TestTracker_RefreshKeepsLastGoodOnFailure(t *testing.T) {
	f := &stubFetcher{value: 1500}
	tr := NewTracker(TrackerOpts{MinRefreshGap: time.Nanosecond}, f, nil, quietLogger())

	var updates []models.Rate
	tr.OnUpdate = func(r models.Rate) { updates = append(updates, r) }

	if _, err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if tr.Current().Value != 1500 {
		t.Fatalf("current = %+v", tr.Current())
	}

	f.err = ErrNoRate
	time.Sleep(time.Millisecond)
	r, err := tr.Refresh(context.Background())
	if !errors.Is(err, ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}
	if r.Value != 1500 || tr.Current().Value != 1500 {
		t.Fatalf("last good rate lost: %+v", tr.Current())
	}
	if len(updates) != 1 {
		t.Fatalf("OnUpdate called %d times, want 1", len(updates))
	}
}

func TestTracker_RefreshIsRateLimited(t *testing.T) {
	f := &stubFetcher{value: 1500}
	tr := NewTracker(TrackerOpts{MinRefreshGap: time.Hour}, f, nil, quietLogger())

	if _, err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if _, err := tr.Refresh(context.Background()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("fetcher called %d times, want 1", f.calls)
	}
}

func TestTracker_PersistsAndRestores(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tr := NewTracker(TrackerOpts{}, &stubFetcher{value: 1610.25}, repo, quietLogger())
	tr.now = func() time.Time { return fixed }
	if _, err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	restored := NewTracker(TrackerOpts{}, &stubFetcher{err: ErrNoRate}, repo, quietLogger())
	if err := restored.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	cur := restored.Current()
	if cur.Value != 1610.25 || cur.Source != "stub" || !cur.FetchedAt.Equal(fixed) {
		t.Fatalf("restored %+v", cur)
	}
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	f := &stubFetcher{value: 1400}
	tr := NewTracker(TrackerOpts{}, f, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for tr.Current().Value != 1400 {
		if time.Now().After(deadline) {
			t.Fatal("initial refresh did not happen")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
