package widget

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type WidgetController struct{}

func NewWidgetController() *WidgetController {
	return &WidgetController{}
}

// ListTypes returns the widget palette, optionally filtered by
// ?category=basic|data|interactive.
func (h *WidgetController) ListTypes(c *fiber.Ctx) error {
	entries := Catalog()
	if cat := Category(c.Query("category")); cat != "" {
		filtered := make([]CatalogEntry, 0, len(entries))
		for _, e := range entries {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	return c.JSON(fiber.Map{"types": entries})
}

// GetDefaults returns the widget a drop of the given type would create at
// the origin.
func (h *WidgetController) GetDefaults(c *fiber.Ctx) error {
	w, err := New(Type(c.Params("type")), 0, 0)
	if errors.Is(err, ErrUnknownType) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(w)
}
