package exchange

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Tracker *Tracker
	Repo    *Repo
}

func NewHandler(tracker *Tracker, repo *Repo) *Handler {
	return &Handler{Tracker: tracker, Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.current)         // GET /rate
	rg.GET("/history", h.history) // GET /rate/history
}

// RegisterAdminRoutes mounts the forced refresh on an authenticated group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/rate/refresh", h.refresh)
}

func (h *Handler) current(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tracker.Current())
}

func (h *Handler) history(c *gin.Context) {
	if h.Repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate history disabled"})
		return
	}
	cur := h.Tracker.Current()
	limit := parseInt(c.Query("limit"), 24)

	items, err := h.Repo.History(c.Request.Context(), cur.Base, cur.Quote, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	r, err := h.Tracker.Refresh(c.Request.Context())
	switch {
	case errors.Is(err, ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "refresh too frequent", "rate": r})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": "refresh failed", "rate": r})
		return
	}
	c.JSON(http.StatusOK, r)
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
