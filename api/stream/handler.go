package stream

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// StreamQuotes upgrades the request to a websocket and subscribes it to the
// quote broadcast.
func (h *Handler) StreamQuotes(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		zaplogger.Error("Failed to upgrade websocket", zaplogger.Fields{"error": err})
		return err
	}

	client := newClient(h.hub, conn)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}
