package listings

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func writeCSV(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestStore_ReloadReplacesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.csv")
	writeCSV(t, path, csvOf("Focus,2018,15000,Manual,30000,Petrol,150,45.0,1.0,Ford"))

	store := NewStore(FileSource{Path: path}, quietLogger())
	if _, err := store.Snapshot(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if store.Table() != nil {
		t.Fatal("table should be nil before load")
	}

	var reloads int
	store.OnReload = func(Snapshot) { reloads++ }

	first, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first.Table.Len() != 1 || first.Source != "csv:"+path {
		t.Fatalf("unexpected snapshot %+v", first)
	}

	writeCSV(t, path, csvOf(
		"Focus,2018,15000,Manual,30000,Petrol,150,45.0,1.0,Ford",
		"A3,2019,20000,Manual,10000,Petrol,145,50.0,1.4,Audi",
	))
	second, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.Table.Len() != 2 || len(second.Table.Manufacturers()) != 2 {
		t.Fatalf("indices not rebuilt: %d rows", second.Table.Len())
	}
	// the earlier snapshot is untouched
	if first.Table.Len() != 1 {
		t.Fatal("old snapshot mutated")
	}
	if reloads != 2 {
		t.Fatalf("OnReload called %d times", reloads)
	}
}

func TestStore_FailedReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.csv")
	writeCSV(t, path, csvOf("Focus,2018,15000,Manual,30000,Petrol,150,45.0,1.0,Ford"))
	store := NewStore(FileSource{Path: path}, quietLogger())
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	writeCSV(t, path, header)
	if _, err := store.Reload(context.Background()); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if store.Table().Len() != 1 {
		t.Fatal("previous snapshot should survive a failed reload")
	}

	missing := NewStore(FileSource{Path: filepath.Join(t.TempDir(), "nope.csv")}, quietLogger())
	if _, err := missing.Reload(context.Background()); err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestFileSource_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (FileSource{Path: "unused"}).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
