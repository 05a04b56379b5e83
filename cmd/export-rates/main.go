package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cardash/internal/exchange"
	"cardash/pkg/database"
	"cardash/pkg/utils"
)

func main() {
	rc := utils.LoadRateConfig()
	var (
		outPath = flag.String("out", "data/rates.json", "output JSON path")
		quotes  = flag.String("quotes", rc.Quote, "comma-separated quote currencies")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	var qs []string
	for _, q := range strings.Split(*quotes, ",") {
		if q = strings.ToUpper(strings.TrimSpace(q)); q != "" {
			qs = append(qs, q)
		}
	}

	m, err := exchange.BuildMirror(ctx, exchange.NewRepo(db), rc.Base, qs)
	if err != nil {
		log.Fatalf("build mirror failed: %v", err)
	}
	if len(m.Rates) == 0 {
		log.Fatalf("no stored %s rates for %s; run rate-fetch first", rc.Base, *quotes)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatalf("mkdir failed: %v", err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		log.Fatalf("marshal failed: %v", err)
	}
	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		log.Fatalf("write failed: %v", err)
	}

	log.Printf("exported %d %s rates to %s", len(m.Rates), m.Base, *outPath)
}
