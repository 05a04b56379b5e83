package predict

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cardash/internal/currency"
	"cardash/internal/listings"
	"cardash/pkg/models"
)

const (
	minYear = 1900
	maxYear = 2100
)

// RateSource supplies the current USD conversion rate.
type RateSource interface {
	Current() models.Rate
}

type Handler struct {
	Store *listings.Store
	Rates RateSource
}

func NewHandler(store *listings.Store, rates RateSource) *Handler {
	return &Handler{Store: store, Rates: rates}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.predict) // POST /predict
}

type predictReq struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
}

func (h *Handler) predict(c *gin.Context) {
	var req predictReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	manufacturer := listings.NormalizeManufacturer(req.Manufacturer)
	model := strings.TrimSpace(req.Model)
	if manufacturer == "" || model == "" || req.Year == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manufacturer, model and year required"})
		return
	}
	if req.Year < minYear || req.Year > maxYear {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year out of range"})
		return
	}

	t := h.Store.Table()
	if t == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset not loaded"})
		return
	}

	est, err := Estimate(t, manufacturer, model, req.Year, h.Rates.Current().Value)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no listings for selection"})
		return
	}
	c.JSON(http.StatusOK, est)
}

// Estimate fits the trend of one manufacturer/model and projects it to year,
// converting the result with rate.
func Estimate(t *listings.Table, manufacturer, model string, year int, rate float64) (models.Estimate, error) {
	line, err := Fit(listings.Trend(t, manufacturer, model))
	if err != nil {
		return models.Estimate{}, err
	}
	usd := line.At(year)
	if usd < 0 {
		usd = 0
	}
	return models.Estimate{
		Manufacturer: listings.NormalizeManufacturer(manufacturer),
		Model:        model,
		Year:         year,
		USDPrice:     currency.Round2(usd),
		NGNPrice:     currency.Ptr(currency.Convert(usd, rate)),
		Method:       Method,
		R2:           line.R2,
		Points:       line.Points,
	}, nil
}
