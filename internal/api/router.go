package api

import (
	"time"

	"costlens/docs"
	"costlens/internal/api/handlers"
	"costlens/pkg/auth"
	"costlens/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

const defaultBodyLimitMB = 50

// Handlers groups the HTTP handlers. Auth may be nil when operator auth is
// switched off.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Upload    *handlers.UploadHandler
	Assistant *handlers.AssistantHandler
	Dashboard *handlers.DashboardHandler
	Chat      *handlers.ChatHandler
}

type RouterConfig struct {
	BodyLimitMB  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AccessLog    bool
}

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	cfg RouterConfig,
	appLogger *zap.Logger,
) *fiber.App {
	bodyLimit := cfg.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimitMB
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    bodyLimit * 1024 * 1024,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	_ = docs.SwaggerInfo // docs registers itself with swag in init()
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if h.Auth != nil && jwtManager != nil {
		authGroup := app.Group("/auth")
		authGroup.Post("/login", h.Auth.Login)
		authGroup.Post("/refresh", h.Auth.RefreshToken)
	}

	requireAuth := middleware.AuthMiddleware(jwtManager, appLogger)

	// Backend endpoints the dashboard talks to
	app.Post("/upload", requireAuth, h.Upload.Upload)
	app.Post("/ask", requireAuth, h.Assistant.Ask)
	app.Post("/query", requireAuth, h.Assistant.Query)
	app.Get("/schema", requireAuth, h.Assistant.Schema)
	app.Get("/tables", requireAuth, h.Assistant.Tables)

	v1 := app.Group("/api/v1", requireAuth)

	v1.Get("/costs", h.Dashboard.State)
	v1.Post("/costs/mock", h.Dashboard.LoadMockData)
	v1.Delete("/state", h.Dashboard.Reset)
	v1.Get("/overview", h.Dashboard.Overview)
	v1.Get("/trends", h.Dashboard.Trends)
	v1.Get("/services", h.Dashboard.Services)
	v1.Get("/resources", h.Dashboard.Resources)
	v1.Get("/forecast", h.Dashboard.Forecast)
	v1.Get("/anomalies", h.Dashboard.Anomalies)
	v1.Get("/recommendations", h.Dashboard.Recommendations)
	v1.Patch("/recommendations/:id", h.Dashboard.UpdateRecommendation)
	v1.Get("/sample.csv", h.Dashboard.SampleCSV)

	v1.Get("/chat", h.Chat.History)
	v1.Post("/chat", h.Chat.Send)

	v1.Post("/import/aws", h.Upload.ImportCostExplorer)
	v1.Get("/uploads", h.Upload.ListUploads)

	return app
}
