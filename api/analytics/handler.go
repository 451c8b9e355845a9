package analytics

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stockpulse/stockpulseapi/shared/response"
)

const maxBulkTokens = 50

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetAnalytics returns the analytics block for one instrument token.
func (h *Handler) GetAnalytics(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Missing token")
	}

	result, err := h.service.Analyze(c.Request().Context(), token)
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "AnalyticsException", err.Error())
	}

	return response.SuccessResponse(c, result)
}

type bulkRequest struct {
	Tokens []string `json:"tokens"`
}

// GetBulkAnalytics returns analytics for multiple tokens; per-token failures
// are reported inline.
func (h *Handler) GetBulkAnalytics(c echo.Context) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", err.Error())
	}
	if len(req.Tokens) == 0 {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "tokens is required")
	}
	if len(req.Tokens) > maxBulkTokens {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "too many tokens requested")
	}

	results := h.service.AnalyzeBulk(c.Request().Context(), req.Tokens)
	return response.SuccessResponse(c, results)
}
