package dashboard

import (
	"errors"
	"fmt"

	"go-dashboard/internal/features/realtime"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	DashboardService DashboardService
}

func NewDashboardController(dashboardService DashboardService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
	}
}

// GetMyDashboard returns the dashboard of the authenticated user, or the
// shared demo dashboard for anonymous requests.
func (ctrl *DashboardController) GetMyDashboard(ctx *fiber.Ctx) error {
	return ctrl.respondDashboard(ctx, ownDashboardID(ctx))
}

func (ctrl *DashboardController) GetDashboard(ctx *fiber.Ctx) error {
	id, ok := requestedDashboardID(ctx)
	if !ok {
		return forbidden(ctx)
	}
	return ctrl.respondDashboard(ctx, id)
}

// ownDashboardID is the only dashboard the caller may read.
func ownDashboardID(ctx *fiber.Ctx) string {
	var uid string
	if claims := middleware.ClaimsFrom(ctx); claims != nil {
		uid = claims.UserID
	}
	return realtime.DashboardID(uid)
}

// requestedDashboardID resolves the :id parameter, falling back to the
// caller's own dashboard on /me routes. ok is false when :id names a
// dashboard the caller does not own.
func requestedDashboardID(ctx *fiber.Ctx) (string, bool) {
	own := ownDashboardID(ctx)
	id := ctx.Params("id")
	if id == "" {
		return own, true
	}
	return id, id == own
}

func forbidden(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied to this dashboard"})
}

func (ctrl *DashboardController) respondDashboard(ctx *fiber.Ctx, id string) error {
	doc, err := ctrl.DashboardService.GetDashboard(ctx.UserContext(), id)
	if errors.Is(err, ErrNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(doc)
}

func (ctrl *DashboardController) GetPresence(ctx *fiber.Ctx) error {
	id, ok := requestedDashboardID(ctx)
	if !ok {
		return forbidden(ctx)
	}

	view, err := ctrl.DashboardService.GetPresence(ctx.UserContext(), id)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(view)
}

func (ctrl *DashboardController) ExportDashboard(ctx *fiber.Ctx) error {
	id, ok := requestedDashboardID(ctx)
	if !ok {
		return forbidden(ctx)
	}

	export, err := ctrl.DashboardService.ExportDashboard(ctx.UserContext(), id)
	if errors.Is(err, ErrNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Type", xlsxContentType)
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename))
	return ctx.Send(export.Data)
}
