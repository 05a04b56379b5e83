package models

// Estimate is a price projection for a manufacturer/model in a given year.
// NGNPrice is nil when no usable exchange rate is known.
type Estimate struct {
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	USDPrice     float64  `json:"usd_price"`
	NGNPrice     *float64 `json:"ngn_price"`
	Method       string   `json:"method"`
	R2           float64  `json:"r2"`
	Points       int      `json:"points"` // number of trend years the fit used
}
