package system

import (
	"time"

	"go-dashboard/internal/config"
	"go-dashboard/internal/features/session"

	"github.com/gofiber/fiber/v2"
)

// SessionCounter reports how many websocket sessions are live.
type SessionCounter interface {
	Count() int
}

type HealthController struct {
	Sessions  SessionCounter
	Config    *config.Config
	StartedAt time.Time
}

func NewHealthController(hub *session.Hub, cfg *config.Config) *HealthController {
	return &HealthController{
		Sessions:  hub,
		Config:    cfg,
		StartedAt: time.Now(),
	}
}

func (h *HealthController) HealthCheck(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Status reports the store driver in use and the live session count.
func (h *HealthController) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"environment": h.Config.Environment,
		"store":       h.Config.StoreDriver,
		"sessions":    h.Sessions.Count(),
		"uptime":      time.Since(h.StartedAt).Round(time.Second).String(),
	})
}
