package aggregate

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pkale/glucorisk/internal/history"
	"github.com/pkale/glucorisk/internal/report"
)

// Handler provides the dashboard and record detail endpoints.
type Handler struct {
	aggregator *Aggregator
}

// NewHandler creates a new aggregate handler.
func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

// RegisterRoutes sets up the read-only history routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.Dashboard)
	r.GET("/records/:index", h.GetRecord)
	r.GET("/records/:index/report", h.GetReport)
}

// Dashboard handles GET /v1/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.aggregator.Summarize(ctx)
	if err != nil {
		h.storeError(c, err)
		return
	}

	records, err := h.aggregator.Records(ctx)
	if err != nil {
		h.storeError(c, err)
		return
	}

	if summary.Total == 0 {
		c.JSON(http.StatusOK, gin.H{
			"total":   0,
			"avg":     0,
			"high":    0,
			"records": []any{},
			"message": "No data available yet.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   summary.Total,
		"avg":     summary.AverageProbability,
		"high":    summary.HighRiskCount,
		"records": records,
	})
}

// GetRecord handles GET /v1/records/:index
func (h *Handler) GetRecord(c *gin.Context) {
	index, ok := h.parseIndex(c)
	if !ok {
		return
	}

	rec, err := h.aggregator.FetchByIndex(c.Request.Context(), index)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Record not found"})
			return
		}
		h.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": rec})
}

// GetReport handles GET /v1/records/:index/report
func (h *Handler) GetReport(c *gin.Context) {
	index, ok := h.parseIndex(c)
	if !ok {
		return
	}

	rec, err := h.aggregator.FetchByIndex(c.Request.Context(), index)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Record not found"})
			return
		}
		h.storeError(c, err)
		return
	}

	c.String(http.StatusOK, report.Render(rec))
}

func (h *Handler) parseIndex(c *gin.Context) (int64, bool) {
	index, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Record index must be a non-negative integer",
		})
		return 0, false
	}
	return index, true
}

// storeError distinguishes a corrupt/mismatched store from other faults.
func (h *Handler) storeError(c *gin.Context, err error) {
	code := "store_error"
	if errors.Is(err, history.ErrSchemaMismatch) {
		code = "schema_mismatch"
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": code, "message": err.Error()})
}
