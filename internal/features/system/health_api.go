package system

import (
	"go-dashboard/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	Controller *HealthController
}

func NewHealthApi(controller *HealthController) api.Route {
	return &HealthApi{Controller: controller}
}

// Setup registers health check routes
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", h.Controller.HealthCheck)
	app.Get("/api/health", h.Controller.Status)
}
