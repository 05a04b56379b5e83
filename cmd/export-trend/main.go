package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cardash/internal/currency"
	"cardash/internal/exchange"
	"cardash/internal/listings"
	"cardash/pkg/database"
	"cardash/pkg/models"
	"cardash/pkg/utils"
)

func main() {
	var (
		in           = flag.String("in", "", "listings CSV path (default: read the SQLite archive)")
		out          = flag.String("out", "data/trend.csv", "output path")
		format       = flag.String("format", "csv", "output format: csv or xlsx")
		manufacturer = flag.String("manufacturer", "", "manufacturer (any case)")
		model        = flag.String("model", "", "model, exactly as listed")
		rate         = flag.Float64("rate", 0, "conversion rate (default: newest stored rate, else CARDASH_RATE_DEFAULT)")
	)
	flag.Parse()

	if *manufacturer == "" || *model == "" {
		log.Fatal("-manufacturer and -model are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	var src listings.Source = listings.ArchiveSource{Repo: listings.NewRepo(db)}
	if *in != "" {
		src = listings.FileSource{Path: *in}
	}
	t, err := src.Load(ctx)
	if err != nil {
		log.Fatalf("load listings from %s failed: %v", src.Name(), err)
	}

	r := *rate
	if !(r > 0) {
		rc := utils.LoadRateConfig()
		r = storedRate(ctx, exchange.NewRepo(db), rc.Base, rc.Quote, rc.Default)
	}

	points := listings.Trend(t, *manufacturer, *model)
	switch *format {
	case "csv":
		err = writeTrend(*out, points, r)
	case "xlsx":
		err = writeTrendXLSX(*out, listings.NormalizeManufacturer(*manufacturer)+" "+*model, points, r)
	default:
		log.Fatalf("unknown -format %q", *format)
	}
	if err != nil {
		log.Fatalf("export trend failed: %v", err)
	}
	log.Printf("exported %d trend points for %s %s to %s", len(points), *manufacturer, *model, *out)
}

func storedRate(ctx context.Context, repo *exchange.Repo, base, quote string, fallback float64) float64 {
	latest, err := repo.Latest(ctx, base, quote)
	if err != nil || latest == nil {
		return fallback
	}
	return latest.Value
}

func trendRow(p models.TrendPoint, rate float64) (usd float64, ngn *float64) {
	return currency.Round2(p.AveragePrice), currency.Ptr(currency.Convert(p.AveragePrice, rate))
}

func writeTrend(outPath string, points []models.TrendPoint, rate float64) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"year", "usd_price", "ngn_price"}); err != nil {
		return err
	}

	for _, p := range points {
		usd, converted := trendRow(p, rate)
		ngn := ""
		if converted != nil {
			ngn = strconv.FormatFloat(*converted, 'f', 2, 64)
		}
		if err := w.Write([]string{
			strconv.Itoa(p.Year),
			fmt.Sprintf("%.2f", usd),
			ngn,
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
