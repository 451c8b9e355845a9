package instrument

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stockpulse/stockpulseapi/shared/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type UpdateInstrumentsResponseData struct {
	Timestamp string `json:"timestamp"`
	Records   int    `json:"records"`
}

func (h *Handler) UpdateInstruments(c echo.Context) error {
	totalInserted, err := h.service.UpdateInstruments()
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "update_error", err.Error())
	}

	responseData := UpdateInstrumentsResponseData{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Records:   totalInserted,
	}

	return response.SuccessResponse(c, responseData)
}

func (h *Handler) QueryInstruments(c echo.Context) error {
	exchange := c.QueryParam("exchange")
	symbol := c.QueryParam("symbol")
	name := c.QueryParam("name")

	if exchange == "" && symbol == "" && name == "" {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Provide at least one of `exchange`, `symbol`, `name`")
	}

	instruments, err := h.service.QueryInstruments(exchange, symbol, name)
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "DatabaseException", err.Error())
	}

	return response.SuccessResponse(c, instruments)
}

func (h *Handler) GetWatchInstruments(c echo.Context) error {
	instruments, err := h.service.GetWatchInstruments()
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "DatabaseException", err.Error())
	}

	return response.SuccessResponse(c, instruments)
}

func (h *Handler) AddWatchInstruments(c echo.Context) error {
	var req struct {
		Instruments []string `json:"instruments"`
	}
	if err := c.Bind(&req); err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Invalid request body")
	}
	if len(req.Instruments) == 0 {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "No instruments provided")
	}

	result, err := h.service.AddWatchInstruments(req.Instruments)
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "DatabaseException", err.Error())
	}

	return response.SuccessResponse(c, result)
}

func (h *Handler) DeleteWatchInstruments(c echo.Context) error {
	var req struct {
		Tokens []string `json:"tokens"`
	}
	if err := c.Bind(&req); err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Invalid request body")
	}
	if len(req.Tokens) == 0 {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "No tokens provided")
	}

	deleted, err := h.service.DeleteWatchInstruments(req.Tokens)
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "DatabaseException", err.Error())
	}

	return response.SuccessResponse(c, map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"deleted":   deleted,
	})
}
