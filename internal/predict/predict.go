// Package predict projects a listing price for a future year from a trend
// series using an ordinary least-squares line of price over year.
package predict

import (
	"errors"
	"math"

	"cardash/pkg/models"
)

// Method names the fitting technique reported alongside an estimate.
const Method = "Linear Regression"

var ErrNoData = errors.New("no trend data to fit")

// Line is price = Intercept + Slope*year.
type Line struct {
	Slope     float64
	Intercept float64
	R2        float64
	Points    int
}

// At evaluates the line at a year.
func (l Line) At(year int) float64 {
	return l.Intercept + l.Slope*float64(year)
}

// Fit computes the least-squares line through the trend points. A single
// point gives a flat line through it.
func Fit(points []models.TrendPoint) (Line, error) {
	n := len(points)
	if n == 0 {
		return Line{}, ErrNoData
	}
	if n == 1 {
		return Line{Intercept: points[0].AveragePrice, R2: 1, Points: 1}, nil
	}

	var meanX, meanY float64
	for _, p := range points {
		meanX += float64(p.Year)
		meanY += p.AveragePrice
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sxy, sxx, syy float64
	for _, p := range points {
		dx := float64(p.Year) - meanX
		dy := p.AveragePrice - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	// every point has the same year
	if sxx == 0 {
		return Line{Intercept: meanY, R2: 1, Points: n}, nil
	}

	slope := sxy / sxx
	line := Line{Slope: slope, Intercept: meanY - slope*meanX, Points: n}

	if syy == 0 {
		line.R2 = 1
	} else {
		var ssRes float64
		for _, p := range points {
			r := p.AveragePrice - line.At(p.Year)
			ssRes += r * r
		}
		line.R2 = math.Max(0, 1-ssRes/syy)
	}
	return line, nil
}
