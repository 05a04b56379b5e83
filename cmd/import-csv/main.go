package main

import (
	"context"
	"flag"
	"log"
	"time"

	"cardash/internal/listings"
	"cardash/pkg/database"
)

func main() {
	in := flag.String("in", "data/CarsData.csv", "input listings CSV path")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	t, err := listings.FileSource{Path: *in}.Load(ctx)
	if err != nil {
		log.Fatalf("load %s failed: %v", *in, err)
	}

	repo := listings.NewRepo(db)
	if err := repo.ReplaceAll(ctx, t); err != nil {
		log.Fatalf("archive listings failed: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("count listings failed: %v", err)
	}
	log.Printf("imported %d listings (%d manufacturers) from %s", n, len(t.Manufacturers()), *in)
}
