package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/pegah-mashcool/buienradar-bridge/internal/api/http"
	"github.com/pegah-mashcool/buienradar-bridge/internal/bridge"
	"github.com/pegah-mashcool/buienradar-bridge/internal/buienradar"
	"github.com/pegah-mashcool/buienradar-bridge/internal/config"
	"github.com/pegah-mashcool/buienradar-bridge/internal/convflow"
	"github.com/pegah-mashcool/buienradar-bridge/internal/publish"
	"github.com/pegah-mashcool/buienradar-bridge/internal/scheduler"
	"github.com/pegah-mashcool/buienradar-bridge/internal/sensor"
	"github.com/pegah-mashcool/buienradar-bridge/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory snapshot history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Feed client with resilience (backoff + circuit breaker).
	feed := buienradar.NewClient(httpClient, cfg.Latitude, cfg.Longitude, cfg.Timeframe)

	// Optional Home Assistant publisher.
	var publisher sensor.Publisher
	if cfg.HomeAssistantURL != "" {
		publisher = publish.NewClient(httpClient, cfg.HomeAssistantURL, cfg.HomeAssistantToken)
	} else {
		log.Println("publish: HA_URL not set; state publishing disabled")
	}

	// One entity per sensor spec.
	entities := sensor.NewEntities(cfg.SensorName, cfg.Latitude, cfg.Longitude, publisher)
	subscribers := make([]bridge.Subscriber, 0, len(entities))
	for _, e := range entities {
		subscribers = append(subscribers, e)
	}

	// Core service orchestrating feed, store, and entities.
	service := bridge.NewService(feed, memStore, subscribers)

	// Scheduler with success/failure rescheduling.
	sched := scheduler.New(service, cfg.ScheduleOK, cfg.ScheduleNOK)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Conversation config/options flow.
	flow := convflow.NewFlow(convflow.NewMemoryClient(cfg.MemoryBaseURL))

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "buienradar-bridge",
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
			"service": "buienradar-bridge",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, entities, flow)

	// Start server with graceful shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
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
