package main

import (
	"context"
	"flag"
	"log"
	"time"

	"cardash/internal/exchange"
	"cardash/pkg/database"
	"cardash/pkg/models"
	"cardash/pkg/utils"
)

func main() {
	mirror := flag.String("mirror", "", "optional rate-mirror base URL tried after the public providers")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	rc := utils.LoadRateConfig()
	sources := []exchange.Source{
		exchange.NewPairSource(rc.PairBaseURL, rc.APIKey),
		exchange.NewLatestSource(rc.LatestBaseURL),
	}
	if *mirror != "" {
		sources = append(sources, exchange.NewLatestSource(*mirror))
	}

	v, source, err := exchange.NewAggregator(sources...).Fetch(ctx, rc.Base, rc.Quote)
	if err != nil {
		log.Fatalf("fetch %s/%s failed: %v", rc.Base, rc.Quote, err)
	}

	r := models.Rate{Base: rc.Base, Quote: rc.Quote, Value: v, Source: source, FetchedAt: time.Now().UTC()}
	if err := exchange.NewRepo(db).Insert(ctx, r); err != nil {
		log.Fatalf("save failed: %v", err)
	}
	log.Printf("stored 1 %s = %.4f %s from %s", r.Base, r.Value, r.Quote, r.Source)
}
