package server

import (
	"context"

	"supportly-be/internal/bootstrap"
	"supportly-be/internal/config"
	"supportly-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             11 * 1024 * 1024, // 10MB upload plus multipart overhead
		DisableStartupMessage: cfg.App.IsProduction(),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		// The widget token route sets its own open policy.
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/widget-auth"
		},
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: cfg.App.CorsAllowedOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Run starts the hub relay and blocks serving HTTP until Shutdown.
func (s *Server) Run(ctx context.Context) error {
	go s.container.WebSocketHub.Run(ctx)

	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.HealthController.RegisterRoutes(app)
	c.WebSocketHandler.RegisterRoutes(app)

	api := app.Group("/api")
	c.WidgetAuthController.RegisterRoutes(api)
	c.TrainingController.RegisterRoutes(api, c.AuthMiddleware)
	c.ConversationController.RegisterRoutes(api, c.AuthMiddleware)
}
