// Package api exposes the dashboard views over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeexplorer/internal/explorer"
	"tradeexplorer/internal/selection"
)

// Views computes the dashboard results for a selection.
type Views interface {
	Single(ctx context.Context, in selection.Input) (explorer.SingleResult, error)
	Multi(ctx context.Context, in selection.Input) (explorer.MultiResult, error)
}

type Handler struct {
	views  Views
	logger *slog.Logger
}

func NewHandler(views Views, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{views: views, logger: logger.With("component", "api")}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api")
	{
		group.GET("/options", h.Options)
		group.GET("/single", h.Single)
		group.POST("/single", h.Single)
		group.GET("/multi", h.Multi)
		group.POST("/multi", h.Multi)
	}
}

// Options returns the selectable values and the default selections.
func (h *Handler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, Success(http.StatusOK, gin.H{
		"options": selection.AvailableOptions(),
		"single":  selection.DefaultSingle(),
		"multi":   selection.DefaultMulti(),
	}))
}

// Single answers the single-country view.
func (h *Handler) Single(c *gin.Context) {
	in, ok := h.bind(c, selection.DefaultSingle)
	if !ok {
		return
	}
	result, err := h.views.Single(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "single", err)
		return
	}
	c.JSON(http.StatusOK, Success(http.StatusOK, result))
}

// Multi answers the country versus partners view.
func (h *Handler) Multi(c *gin.Context) {
	in, ok := h.bind(c, selection.DefaultMulti)
	if !ok {
		return
	}
	result, err := h.views.Multi(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "multi", err)
		return
	}
	c.JSON(http.StatusOK, Success(http.StatusOK, result))
}

// bind reads a selection from a JSON body or the query string. A GET
// without any parameter selects the default view.
func (h *Handler) bind(c *gin.Context, fallback func() selection.Input) (selection.Input, bool) {
	if c.Request.Method == http.MethodPost {
		var in selection.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, Error(http.StatusBadRequest, "invalid selection: "+err.Error()))
			return selection.Input{}, false
		}
		return in, true
	}
	if len(c.Request.URL.Query()) == 0 {
		return fallback(), true
	}
	return selection.Input{
		Country:   selection.List(c.QueryArray("country")),
		Partners:  selection.List(c.QueryArray("partner")),
		Group:     selection.List(c.QueryArray("group")),
		Unit:      c.Query("unit"),
		Prices:    c.Query("prices"),
		TimeRange: selection.Range(c.QueryArray("time")),
		Category:  c.Query("category"),
		Flow:      c.Query("flow"),
	}, true
}

func (h *Handler) fail(c *gin.Context, view string, err error) {
	status := statusOf(err)
	h.logger.Warn("view failed", "view", view, "status", status,
		"request_id", c.GetString(requestIDKey), "error", err)
	c.JSON(status, Error(status, err.Error()))
}
