package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stockpulse/stockpulseapi/shared/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GenerateSession(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Invalid request body")
	}
	sessionData, err := h.service.GenerateSession(req)
	if err != nil {
		return response.ErrorResponse(c, http.StatusUnauthorized, "AuthenticationException", err.Error())
	}

	return response.SuccessResponse(c, sessionData)
}

func (h *Handler) CheckSessionValid(c echo.Context) error {
	var req struct {
		ClientCode string `json:"client_code"`
		Token      string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Invalid request body")
	}

	_, err := h.service.VerifySession(req.ClientCode, req.Token)
	if err != nil {
		return response.SuccessResponse(c, map[string]bool{"is_valid": false})
	}

	return response.SuccessResponse(c, map[string]bool{"is_valid": true})
}
