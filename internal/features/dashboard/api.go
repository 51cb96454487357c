package dashboard

import (
	"go-dashboard/internal/common/api"
	"go-dashboard/internal/config"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DashboardApi struct {
	DashboardController *DashboardController
	Config              *config.Config
}

func NewDashboardApi(dashboardController *DashboardController, cfg *config.Config) api.Route {
	return &DashboardApi{
		DashboardController: dashboardController,
		Config:              cfg,
	}
}

func (api *DashboardApi) Setup(app *fiber.App) {
	group := app.Group("/api/dashboards", middleware.OptionalAuthMiddleware(api.Config.SkipAuth))

	group.Get("/me", api.DashboardController.GetMyDashboard)
	group.Get("/me/presence", api.DashboardController.GetPresence)
	group.Get("/me/export", api.DashboardController.ExportDashboard)
	group.Get("/:id", api.DashboardController.GetDashboard)
	group.Get("/:id/presence", api.DashboardController.GetPresence)
	group.Get("/:id/export", api.DashboardController.ExportDashboard)
}
