package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/api/handlers"
	"github.com/floatchat/backend/internal/bootstrap"
	"github.com/floatchat/backend/internal/metrics"
	"github.com/floatchat/backend/internal/middleware/ratelimit"
	"github.com/floatchat/backend/internal/middleware/security"
	"github.com/floatchat/backend/internal/middleware/validation"
	"github.com/floatchat/backend/pkg/config"
	appLogger "github.com/floatchat/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting FloatChat API Server")

	metrics.Init()

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to start query engine", zap.Error(err))
	}
	defer app.Close()

	server := fiber.New(fiber.Config{
		AppName:      "floatchat",
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	server.Use(recover.New())
	server.Use(logger.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	server.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: security.SplitOrigins(cfg.Server.CORSOrigins),
		IsDevelopment:  cfg.Logging.Level == "debug",
	}))

	server.Get("/metrics", metrics.MetricsHandler())

	api := server.Group("/api/v1")

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Logger:               appLogger.Named("ratelimit"),
		})
		defer limiter.Stop()
		api.Use(limiter.Middleware())
	}

	api.Use(validation.Middleware(validation.Config{
		LocalsKey: handlers.QueryTextKey,
		Logger:    appLogger.Named("validation"),
	}))

	queryHandler := handlers.NewQueryHandler(app.Engine, cfg.Pipeline.HistoryLimit)
	floatHandler := handlers.NewFloatHandler(app.Store)
	wsHandler := handlers.NewWebSocketHandler(app.Engine)

	api.Post("/query", queryHandler.HandleQuery)
	api.Get("/query/history", queryHandler.GetQueryHistory)
	api.Get("/summary", queryHandler.GetSummary)

	api.Get("/floats/:id/trajectory", floatHandler.GetTrajectory)
	api.Get("/floats/:id/profiles/:cycle/measurements", floatHandler.GetProfileMeasurements)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := app.Store.Ping(pingCtx); err != nil {
			appLogger.Warn("Readiness check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Warn("Shutdown did not complete cleanly", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
