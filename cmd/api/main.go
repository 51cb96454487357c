package main

import (
	"context"
	"fmt"
	"time"

	common_api "go-dashboard/internal/common/api"
	"go-dashboard/internal/config"
	"go-dashboard/internal/database"
	"go-dashboard/internal/features/dashboard"
	"go-dashboard/internal/features/document"
	"go-dashboard/internal/features/session"
	"go-dashboard/internal/features/system"
	"go-dashboard/internal/features/weather"
	"go-dashboard/internal/features/widget"
	"go-dashboard/internal/logger"
	"go-dashboard/internal/middleware"
	"go-dashboard/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, log *zap.Logger) {
	log.Info("Registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		log.Debug("Setting up route", zap.String("route", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("Starting server", zap.String("port", port), zap.String("store", cfg.StoreDriver))
				if err := app.Listen(port); err != nil {
					log.Fatal("Server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// StopSessions closes every websocket session on shutdown so each writer
// is marked offline before the store connection goes away.
func StopSessions(lc fx.Lifecycle, hub *session.Hub) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return hub.Shutdown(ctx)
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, repo document.Repository, log *zap.Logger) {
	mongoRepo, ok := repo.(*document.MongoRepository)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := mongoRepo.EnsureIndexes(ctx); err != nil {
					log.Warn("Failed to ensure presence indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,
			database.NewFirestore,

			// Initialize Repository
			document.NewRepository,

			session.NewHub,

			dashboard.NewDashboardService,
			weather.NewWeatherService,

			// Initialize Controller
			session.NewSessionController,
			dashboard.NewDashboardController,
			widget.NewWidgetController,
			weather.NewWeatherController,
			system.NewHealthController,

			// Initialize API Routes
			AsRoute(session.NewSessionApi),
			AsRoute(dashboard.NewDashboardApi),
			AsRoute(widget.NewWidgetApi),
			AsRoute(weather.NewWeatherApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config, log *zap.Logger) {
				if cfg.SkipAuth {
					log.Warn("SKIP_AUTH is enabled, every request runs as the development user")
				}
				utils.SetSecret(cfg.JWTSecret)
			},
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			StopSessions,
			InitializeIndexes,
		),
	)

	app.Run()
}
