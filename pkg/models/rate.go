package models

import "time"

type Rate struct {
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Value     float64   `json:"value"` // quote units per one base unit
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}
