package database

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_EnvOverride(t *testing.T) {
	t.Setenv("CARDASH_DB_PATH", "/tmp/custom.db")
	cfg := DefaultConfig()
	if cfg.Path != "/tmp/custom.db" {
		t.Fatalf("expected env path, got %s", cfg.Path)
	}
	if cfg.BusyTimeout != 5*time.Second {
		t.Fatalf("expected 5s busy timeout, got %s", cfg.BusyTimeout)
	}
}

func TestOpenMigrated_CreatesTables(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "nested", "data.db"), BusyTimeout: time.Second}
	db, err := OpenMigrated(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"listings", "exchange_rates"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	// schema is idempotent
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
