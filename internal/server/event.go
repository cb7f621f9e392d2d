package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

const chatIDKey = "chat_id"

type eventHandler func(c echo.Context, event models.ChatEvent) (*models.Reply, error)

// withChatID exposes the event's chat id to the request log.
func withChatID(next eventHandler) eventHandler {
	return func(c echo.Context, event models.ChatEvent) (*models.Reply, error) {
		c.Set(chatIDKey, event.ChatID)
		return next(c, event)
	}
}
