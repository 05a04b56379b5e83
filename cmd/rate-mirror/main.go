package main

import (
	"flag"
	"log"
	"net/http"

	"cardash/internal/exchange"
)

func main() {
	addr := flag.String("addr", ":9000", "listen address")
	dataPath := flag.String("data", "data/rates.json", "mirror JSON written by export-rates")
	flag.Parse()

	// point CARDASH_RATE_PAIR_URL / CARDASH_RATE_LATEST_URL here for offline demos
	log.Printf("rate-mirror serving %s on %s", *dataPath, *addr)
	log.Fatal(http.ListenAndServe(*addr, exchange.MirrorHandler(*dataPath)))
}
