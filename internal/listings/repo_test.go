package listings

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"cardash/pkg/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepo_ReplaceAllAndLoadTable(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))

	tbl, err := Load(csvOf(
		"Focus,2018,15000,Manual,30000,Petrol,150,45.0,1.0,Ford",
		"Focus,bad,oops,Manual,30000,Petrol,150,45.0,1.0,Ford",
		"A3,2019,20000,Manual,10000,Petrol,145,50.0,1.4,Audi",
	))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := repo.ReplaceAll(ctx, tbl); err != nil {
		t.Fatalf("replace: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}

	back, err := repo.LoadTable(ctx)
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if back.Len() != 3 {
		t.Fatalf("rows = %d", back.Len())
	}
	rows := back.Rows()
	if rows[0] != tbl.Rows()[0] {
		t.Fatalf("first row mismatch: %+v vs %+v", rows[0], tbl.Rows()[0])
	}
	if rows[1].Year != 0 || !math.IsNaN(rows[1].Price) {
		t.Fatalf("missing values not restored: %+v", rows[1])
	}
	if got := back.Manufacturers(); len(got) != 2 || got[0] != "audi" {
		t.Fatalf("manufacturers = %v", got)
	}

	// second import replaces, not appends
	small, _ := Load(csvOf("Kuga,2019,21000,Manual,12000,Diesel,145,48.7,1.5,Ford"))
	if err := repo.ReplaceAll(ctx, small); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("count after replace = %d", n)
	}

	store := NewStore(ArchiveSource{Repo: repo}, quietLogger())
	snap, err := store.Reload(ctx)
	if err != nil {
		t.Fatalf("archive reload: %v", err)
	}
	if snap.Source != "archive" || snap.Table.Len() != 1 {
		t.Fatalf("unexpected archive snapshot %+v", snap)
	}
}
