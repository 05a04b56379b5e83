package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrNoRate is returned when no source produced a usable rate.
var ErrNoRate = errors.New("no exchange rate available")

// Source is implemented by each exchange-rate provider. The returned value is
// quote-currency units per one base-currency unit.
type Source interface {
	Name() string
	Fetch(ctx context.Context, base, quote string) (float64, error)
}

// PairSource reads the exchangerate-api v6 pair endpoint:
//
//	GET {BaseURL}/v6/{APIKey}/pair/{base}/{quote}
//	{"result": "success", "conversion_rate": 1532.45, ...}
type PairSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewPairSource(baseURL, apiKey string) *PairSource {
	return &PairSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *PairSource) Name() string { return "exchangerate-api/pair" }

func (s *PairSource) Fetch(ctx context.Context, base, quote string) (float64, error) {
	if s.APIKey == "" {
		return 0, fmt.Errorf("pair: api key not configured")
	}
	u := fmt.Sprintf("%s/v6/%s/pair/%s/%s", s.BaseURL, s.APIKey, base, quote)

	var body struct {
		Result         string  `json:"result"`
		ErrorType      string  `json:"error-type"`
		ConversionRate float64 `json:"conversion_rate"`
	}
	if err := getJSON(ctx, s.Client, u, &body); err != nil {
		return 0, fmt.Errorf("pair: %w", err)
	}
	if body.Result != "" && body.Result != "success" {
		return 0, fmt.Errorf("pair: result %s: %s", body.Result, body.ErrorType)
	}
	return body.ConversionRate, nil
}

// LatestSource reads the keyless v4 endpoint:
//
//	GET {BaseURL}/v4/latest/{base}
//	{"base": "USD", "rates": {"NGN": 1532.45, ...}}
type LatestSource struct {
	BaseURL string
	Client  *http.Client
}

func NewLatestSource(baseURL string) *LatestSource {
	return &LatestSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *LatestSource) Name() string { return "exchangerate-api/latest" }

func (s *LatestSource) Fetch(ctx context.Context, base, quote string) (float64, error) {
	u := fmt.Sprintf("%s/v4/latest/%s", s.BaseURL, base)

	var body struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := getJSON(ctx, s.Client, u, &body); err != nil {
		return 0, fmt.Errorf("latest: %w", err)
	}
	v, ok := body.Rates[quote]
	if !ok {
		return 0, fmt.Errorf("latest: no %s rate in response", quote)
	}
	return v, nil
}

// Aggregator asks each source in order and keeps the first positive rate.
type Aggregator struct {
	Sources []Source
	Logger  *log.Logger
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources, Logger: log.Default()}
}

// Fetch returns the rate and the name of the source that supplied it.
func (a *Aggregator) Fetch(ctx context.Context, base, quote string) (float64, string, error) {
	for _, src := range a.Sources {
		v, err := src.Fetch(ctx, base, quote)
		if err != nil {
			a.Logger.Printf("[exchange] source %s error: %v", src.Name(), err)
			continue
		}
		if !(v > 0) {
			a.Logger.Printf("[exchange] source %s returned non-positive rate %v", src.Name(), v)
			continue
		}
		return v, src.Name(), nil
	}
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	return 0, "", ErrNoRate
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
