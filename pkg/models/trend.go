package models

// TrendPoint is the average listing price of one model year, in the
// dataset's native currency (USD).
type TrendPoint struct {
	Year         int     `json:"year"`
	AveragePrice float64 `json:"average_price"`
}
