package listings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"
)

// ErrNotLoaded is returned by Store.Snapshot before the first successful load.
var ErrNotLoaded = errors.New("listings not loaded")

// Source produces a fresh Table each time it is asked.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Table, error)
}

// FileSource reads a listings CSV from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "csv:" + s.Path }

func (s FileSource) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return Load(string(b))
}

// ArchiveSource reads the rows previously archived by import-csv.
type ArchiveSource struct {
	Repo *Repo
}

func (s ArchiveSource) Name() string { return "archive" }

func (s ArchiveSource) Load(ctx context.Context) (*Table, error) {
	return s.Repo.LoadTable(ctx)
}

// Snapshot is a loaded Table and when it was loaded.
type Snapshot struct {
	Table    *Table
	Source   string
	LoadedAt time.Time
}

// Store holds the current dataset. Reload replaces it wholesale; readers keep
// whatever snapshot they already hold.
type Store struct {
	source  Source
	current atomic.Pointer[Snapshot]
	logger  *log.Logger

	// OnReload, when set, is called after every successful reload.
	OnReload func(Snapshot)
}

func NewStore(source Source, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{source: source, logger: logger}
}

// Reload builds a new Table from the source and swaps it in. On failure the
// previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (Snapshot, error) {
	t, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Printf("[listings] reload from %s failed: %v", s.source.Name(), err)
		return Snapshot{}, fmt.Errorf("reload listings: %w", err)
	}

	snap := Snapshot{Table: t, Source: s.source.Name(), LoadedAt: time.Now().UTC()}
	s.current.Store(&snap)
	s.logger.Printf("[listings] loaded %d rows, %d manufacturers from %s",
		t.Len(), len(t.manufacturers), snap.Source)

	if s.OnReload != nil {
		s.OnReload(snap)
	}
	return snap, nil
}

// Snapshot returns the current dataset.
func (s *Store) Snapshot() (Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return Snapshot{}, ErrNotLoaded
	}
	return *snap, nil
}

// Table returns the current table, or nil before the first load.
func (s *Store) Table() *Table {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.Table
}
