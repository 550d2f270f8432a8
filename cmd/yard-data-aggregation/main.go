package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/khoward12/yard-data-aggregation/internal/api/http"
	"github.com/khoward12/yard-data-aggregation/internal/config"
	"github.com/khoward12/yard-data-aggregation/internal/pipeline"
	"github.com/khoward12/yard-data-aggregation/internal/scheduler"
	"github.com/khoward12/yard-data-aggregation/internal/store"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/darksky"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/husqvarna"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/mapbox"
	"github.com/khoward12/yard-data-aggregation/internal/upstream/rachio"
)

func main() {
	// Load configuration; config.Load also pulls in .env when present.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Destination store; the schema must already exist.
	db, err := store.Open(cfg.MySQL)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	deps := pipeline.Deps{
		Mower:         husqvarna.NewExternalClient(httpClient, cfg.HusqvarnaAPIKey, cfg.HusqvarnaUsername, cfg.HusqvarnaPassword),
		MowerInternal: husqvarna.NewInternalClient(httpClient, cfg.HusqvarnaAPIKey, cfg.HusqvarnaUsername, cfg.HusqvarnaPassword),
		Weather:       darksky.NewClient(httpClient, cfg.DarkskyAPIKey),
		Store:         db,
		DetailWorkers: cfg.DetailWorkers,
	}
	if cfg.RachioAPIKey != "" {
		deps.Sprinkler = rachio.NewClient(httpClient, cfg.RachioAPIKey)
	}
	if cfg.GeocodeEnabled {
		deps.Geocode = mapbox.NewClient(httpClient, cfg.MapboxAPIKey)
	}

	pipe := pipeline.New(deps)

	// Scheduler that periodically triggers aggregation runs. A run is given
	// at most half the interval before its context expires.
	sched := scheduler.New(pipe, cfg.FetchInterval, cfg.FetchInterval/2)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "yard-data-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "yard-data-aggregation",
		})
	})

	// Admin routes.
	httpapi.RegisterRoutes(app, pipe)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
