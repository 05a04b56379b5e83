package listings

import (
	"math"
	"sort"

	"cardash/pkg/models"
)

// Trend returns the average price per year for one manufacturer/model pair,
// sorted by year. The manufacturer is matched on its normalized key; the
// model must match the stored text exactly.
//
// Rows with a missing year or price are skipped. An empty selection yields an
// empty series.
func Trend(t *Table, manufacturer, model string) []models.TrendPoint {
	out := []models.TrendPoint{}
	key := NormalizeManufacturer(manufacturer)
	if t == nil || key == "" || model == "" {
		return out
	}

	type acc struct {
		sum   float64
		count int
	}
	byYear := make(map[int]*acc)
	for _, r := range t.rows {
		if r.Manufacturer != key || r.Model != model {
			continue
		}
		if r.Year == 0 || math.IsNaN(r.Price) {
			continue
		}
		a, ok := byYear[r.Year]
		if !ok {
			a = &acc{}
			byYear[r.Year] = a
		}
		a.sum += r.Price
		a.count++
	}

	for year, a := range byYear {
		out = append(out, models.TrendPoint{Year: year, AveragePrice: a.sum / float64(a.count)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// YearRange reports the first and last year of a trend.
func YearRange(points []models.TrendPoint) (from, to int, ok bool) {
	if len(points) == 0 {
		return 0, 0, false
	}
	return points[0].Year, points[len(points)-1].Year, true
}
