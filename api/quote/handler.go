package quote

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/stockpulse/stockpulseapi/shared/response"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// GetQuotes returns the latest snapshot for all watched instruments.
func (h *Handler) GetQuotes(c echo.Context) error {
	quotes, err := h.repo.GetSnapshot(c.Request().Context())
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "SnapshotException", err.Error())
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })

	return response.SuccessResponse(c, quotes)
}

// GetQuote returns the latest snapshot for one token.
func (h *Handler) GetQuote(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Missing token")
	}

	q, err := h.repo.GetQuote(c.Request().Context(), token)
	if err != nil {
		return response.ErrorResponse(c, http.StatusNotFound, "NotFoundException", err.Error())
	}

	return response.SuccessResponse(c, q)
}
