package scoring

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pkale/glucorisk/internal/features"
	"github.com/pkale/glucorisk/internal/history"
	"github.com/pkale/glucorisk/internal/model"
)

// Handler provides the scoring HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHandler creates a new scoring handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up scoring routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/score", h.Score)
}

// Score handles POST /v1/score
func (h *Handler) Score(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	req := Request{Raw: body}
	if name, ok := body["name"].(string); ok {
		req.Name = name
	}
	if id, ok := body["patientId"].(string); ok {
		req.PatientID = id
	} else if id, ok := body["patient_id"].(string); ok {
		req.PatientID = id
	}

	result, err := h.service.Score(c.Request.Context(), req)
	if err != nil {
		status, code := classifyError(err)
		resp := gin.H{"error": code, "message": err.Error()}
		var verr *features.ValidationError
		if errors.As(err, &verr) {
			resp["field"] = verr.Field
			resp["kind"] = string(verr.Kind)
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":      result.Result,
		"probability": result.Probability,
		"color":       result.Color,
		"suggestion":  result.Suggestion,
	})
}

// classifyError maps the pipeline error taxonomy onto HTTP status and a
// machine-readable code, so callers branch on category rather than
// string-matching messages.
func classifyError(err error) (int, string) {
	var verr *features.ValidationError
	var merr *model.ModelError
	var serr *history.StoreError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &merr):
		return http.StatusInternalServerError, "model_error"
	case errors.Is(err, history.ErrSchemaMismatch):
		return http.StatusInternalServerError, "schema_mismatch"
	case errors.As(err, &serr):
		return http.StatusInternalServerError, "store_error"
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
