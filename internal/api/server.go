package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/api/handlers"
	"github.com/student-bot/backend/internal/metrics"
	"github.com/student-bot/backend/internal/middleware/ratelimit"
	"github.com/student-bot/backend/internal/middleware/security"
	"github.com/student-bot/backend/internal/middleware/validation"
	"github.com/student-bot/backend/pkg/config"
	"github.com/student-bot/backend/pkg/logger"
)

type Deps struct {
	// Engine is wrapped in handlers.Serialize before use.
	Engine  handlers.Resolver
	History handlers.HistoryStore
	// Ready reports whether the backing store answers.
	Ready func(ctx context.Context) error
}

// NewServer builds the fiber app with middleware and routes. The returned
// stop func releases background resources and should run after Shutdown.
func NewServer(cfg *config.Config, deps Deps) (*fiber.App, func()) {
	app := fiber.New(fiber.Config{
		AppName:               "studentbot",
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               logger.GetLogger(),
	})

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))

	if cfg.Metrics.Enabled {
		metrics.Init()
		app.Get(cfg.Metrics.Path, metrics.MetricsHandler())
	}

	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxQueryLength: cfg.Query.MaxLength,
		QueryPaths:     []string{"/query", "/api/v1/query"},
		Logger:         logger.GetLogger(),
	}))

	engine := handlers.Serialize(deps.Engine)
	queryHandler := handlers.NewQueryHandler(engine, deps.History)
	wsHandler := handlers.NewWebSocketHandler(queryHandler)

	// Path used by the original chat UI.
	app.Post("/query", queryHandler.HandleQuery)

	api := app.Group("/api/v1")
	api.Post("/query", queryHandler.HandleQuery)
	api.Get("/query/history", queryHandler.GetQueryHistory)
	api.Delete("/cache", queryHandler.InvalidateCache)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if deps.Ready != nil {
			if err := deps.Ready(c.UserContext()); err != nil {
				logger.Warn("Readiness check failed", zap.Error(err))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.HandleConnection))

	return app, limiter.Stop
}
