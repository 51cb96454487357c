package weather

import (
	"time"

	"go-dashboard/internal/common/api"
	"go-dashboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WeatherApi struct {
	Controller *WeatherController
	limiter    *middleware.RateLimiter
}

func NewWeatherApi(controller *WeatherController) api.Route {
	return &WeatherApi{
		Controller: controller,
		limiter:    middleware.NewRateLimiter(30, time.Minute),
	}
}

func (h *WeatherApi) Setup(app *fiber.App) {
	weather := app.Group("/api/weather", h.limiter.Middleware())
	weather.Get("/", h.Controller.GetWeather)
	weather.Get("/:city", h.Controller.GetWeather)
}
