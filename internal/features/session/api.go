package session

import (
	"go-dashboard/internal/common/api"
	"go-dashboard/internal/config"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type SessionApi struct {
	Controller *SessionController
	Config     *config.Config
}

func NewSessionApi(controller *SessionController, cfg *config.Config) api.Route {
	return &SessionApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (h *SessionApi) Setup(app *fiber.App) {
	app.Get("/api/ws",
		upgradeRequired,
		middleware.OptionalAuthMiddleware(h.Config.SkipAuth),
		websocket.New(h.Controller.HandleWebSocket),
	)
}

func upgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
