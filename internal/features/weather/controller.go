package weather

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

type WeatherController struct {
	Service WeatherService
}

func NewWeatherController(service WeatherService) *WeatherController {
	return &WeatherController{Service: service}
}

func (h *WeatherController) GetWeather(c *fiber.Ctx) error {
	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid city"})
	}
	report, err := h.Service.GetWeather(c.UserContext(), city)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
