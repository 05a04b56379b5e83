package sync

import (
	"time"

	"cardash/pkg/models"
)

const (
	RateUpdateEvent    = "rate.update"
	DatasetReloadEvent = "dataset.reload"
)

// RateEvent announces a freshly fetched exchange rate.
type RateEvent struct {
	Type string      `json:"type"`
	Rate models.Rate `json:"rate"`
	At   time.Time   `json:"at"`
}

// DatasetEvent announces that the listings table was rebuilt; open
// dashboards should refetch their selection lists.
type DatasetEvent struct {
	Type          string    `json:"type"`
	Rows          int       `json:"rows"`
	Manufacturers int       `json:"manufacturers"`
	Source        string    `json:"source"`
	At            time.Time `json:"at"`
}

func NewRateEvent(r models.Rate) RateEvent {
	return RateEvent{Type: RateUpdateEvent, Rate: r, At: time.Now().UTC()}
}

func NewDatasetEvent(rows, manufacturers int, source string) DatasetEvent {
	return DatasetEvent{
		Type:          DatasetReloadEvent,
		Rows:          rows,
		Manufacturers: manufacturers,
		Source:        source,
		At:            time.Now().UTC(),
	}
}
