package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/cityhunt/internal/adapters/http"
	natsadapter "github.com/samirrijal/cityhunt/internal/adapters/nats"
	"github.com/samirrijal/cityhunt/internal/adapters/postgres"
	"github.com/samirrijal/cityhunt/internal/adapters/valkey"
	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/ports"
	"github.com/samirrijal/cityhunt/internal/core/usecases"
	"github.com/samirrijal/cityhunt/internal/pkg/config"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
	"github.com/samirrijal/cityhunt/internal/pkg/logging"
	"github.com/samirrijal/cityhunt/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("cityhunt-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup("cityhunt-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	deps := &http.Dependencies{
		DefaultLanguage: i18n.Parse(cfg.Game.DefaultLanguage),
		SpecPath:        http.DefaultSpecPath,
		DB:              db,
	}

	// Cache (optional)
	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS (optional in direct mode)
	var publisher ports.EventPublisher
	var natsPub *natsadapter.Publisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer p.Close()
		natsPub = p
		publisher = p
		deps.NATS = p.Conn()
	}

	// Repos
	levelRepo := postgres.NewLevelRepo(db)
	progressRepo := postgres.NewProgressRepo(db)

	// Use cases
	defaults := usecases.DefaultLevels(
		domain.GeoPoint{Lat: cfg.Game.TargetLat, Lon: cfg.Game.TargetLon},
		cfg.Game.RadiusMeters,
		cfg.Game.TotalLevels,
	)
	levelSvc := usecases.NewLevelService(levelRepo, cache, defaults)
	progressionSvc := usecases.NewProgressionService(progressRepo, publisher, cache, cfg.Game.TotalLevels)
	verificationSvc := usecases.NewVerificationService(levelSvc, progressionSvc, cfg.Game.LocationTimeout)

	var sink ports.CompletionSink = progressionSvc
	switch cfg.Game.ProgressionMode {
	case config.ProgressionWorkflow:
		if natsPub == nil {
			log.Fatalf("progression mode %q needs NATS", cfg.Game.ProgressionMode)
		}
		// cmd/progressor consumes the completions and drives the workflow.
		sink = natsPub
	}
	slog.Info("progression sink selected", "mode", cfg.Game.ProgressionMode)

	challengeSvc := usecases.NewChallengeService(levelSvc, progressionSvc, verificationSvc, sink, usecases.ChallengeConfig{
		TargetCount: cfg.Game.TargetCount,
		FOV:         ar.DefaultFOV,
		SessionTTL:  cfg.Game.SessionTTL,
	})
	go challengeSvc.RunReaper(ctx, time.Minute)

	deps.Levels = levelSvc
	deps.Progression = progressionSvc
	deps.Verification = verificationSvc
	deps.Challenges = challengeSvc

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "CityHunt API",
	})
	app.Use(recover.New())
	if cfg.Log.Format == "text" {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	challengeSvc.CloseAll()
	cancel()

	slog.Info("server stopped")
}
