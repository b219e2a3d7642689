package main

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/config"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/database"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/metrics"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/routes"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.DBUrl == "" {
		log.Fatal().Msg("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.CloseDB()

	metrics.Register()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	bookingService, err := routes.RegisterRoutes(app, cfg, database.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	// Bookings whose session window has passed are also reconciled lazily
	// on read; the sweep keeps rows current for anything nobody is reading.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := bookingService.ReconcileAll(ctx); err != nil {
			log.Error().Err(err).Msg("booking reconcile sweep failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReconcileSchedule).Msg("invalid reconcile schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
