package listings

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cardash/internal/currency"
	"cardash/pkg/models"
)

// RateSource supplies the current USD conversion rate.
type RateSource interface {
	Current() models.Rate
}

type Handler struct {
	Store *Store
	Rates RateSource
}

func NewHandler(store *Store, rates RateSource) *Handler {
	return &Handler{Store: store, Rates: rates}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/manufacturers", h.manufacturers)                       // GET /listings/manufacturers
	rg.GET("/manufacturers/:manufacturer/models", h.modelsForMaker) // GET /listings/manufacturers/:m/models
	rg.GET("/trend", h.trend)                                       // GET /listings/trend?manufacturer=&model=
	rg.GET("/stats", h.stats)                                       // GET /listings/stats
}

// RegisterAdminRoutes mounts dataset reload on an authenticated group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/reload", h.reload)
}

type trendPoint struct {
	Year     int      `json:"year"`
	USDPrice float64  `json:"usd_price"`
	NGNPrice *float64 `json:"ngn_price"`
}

type yearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) manufacturers(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	items := snap.Table.Manufacturers()
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) modelsForMaker(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	manufacturer := NormalizeManufacturer(c.Param("manufacturer"))
	items, found := snap.Table.Models(manufacturer)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "manufacturer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"manufacturer": manufacturer,
		"total":        len(items),
		"items":        items,
	})
}

func (h *Handler) trend(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}

	manufacturer := NormalizeManufacturer(c.Query("manufacturer"))
	model := strings.TrimSpace(c.Query("model"))
	rate := h.Rates.Current()

	points := Trend(snap.Table, manufacturer, model)
	out := make([]trendPoint, 0, len(points))
	for _, p := range points {
		out = append(out, trendPoint{
			Year:     p.Year,
			USDPrice: currency.Round2(p.AveragePrice),
			NGNPrice: currency.Ptr(currency.Convert(p.AveragePrice, rate.Value)),
		})
	}

	resp := gin.H{
		"manufacturer": manufacturer,
		"model":        model,
		"rate":         rate,
		"points":       out,
	}
	if from, to, ok := YearRange(points); ok {
		resp["year_range"] = yearRange{From: from, To: to}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) stats(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":          snap.Table.Len(),
		"manufacturers": len(snap.Table.Manufacturers()),
		"source":        snap.Source,
		"loaded_at":     snap.LoadedAt,
	})
}

func (h *Handler) reload(c *gin.Context) {
	snap, err := h.Store.Reload(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrMalformedInput) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": "reload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":      snap.Table.Len(),
		"source":    snap.Source,
		"loaded_at": snap.LoadedAt,
	})
}

func (h *Handler) snapshot(c *gin.Context) (Snapshot, bool) {
	snap, err := h.Store.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset not loaded"})
		return Snapshot{}, false
	}
	return snap, true
}
