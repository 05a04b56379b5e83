package models

// Listing is one used-car row from the listings CSV.
//
// Year is 0 and Price is NaN when the source text did not parse; consumers
// treat those as missing rather than as real values.
type Listing struct {
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Price        float64 `json:"price"`
	Transmission string  `json:"transmission,omitempty"`
	Mileage      string  `json:"mileage,omitempty"`
	FuelType     string  `json:"fuel_type,omitempty"`
	Tax          string  `json:"tax,omitempty"`
	MPG          string  `json:"mpg,omitempty"`
	EngineSize   string  `json:"engine_size,omitempty"`
	Manufacturer string  `json:"manufacturer"` // normalized key: trimmed, lowercase
}
