package widget

import (
	"go-dashboard/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type WidgetApi struct {
	Controller *WidgetController
}

func NewWidgetApi(controller *WidgetController) api.Route {
	return &WidgetApi{Controller: controller}
}

func (h *WidgetApi) Setup(app *fiber.App) {
	widgets := app.Group("/api/widgets")
	widgets.Get("/types", h.Controller.ListTypes)
	widgets.Get("/types/:type/defaults", h.Controller.GetDefaults)
}
