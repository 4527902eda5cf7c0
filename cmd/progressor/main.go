package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"

	natsadapter "github.com/samirrijal/cityhunt/internal/adapters/nats"
	"github.com/samirrijal/cityhunt/internal/adapters/postgres"
	"github.com/samirrijal/cityhunt/internal/adapters/valkey"
	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/ports"
	"github.com/samirrijal/cityhunt/internal/core/usecases"
	"github.com/samirrijal/cityhunt/internal/pkg/config"
	"github.com/samirrijal/cityhunt/internal/pkg/logging"
	"github.com/samirrijal/cityhunt/internal/pkg/telemetry"
	"github.com/samirrijal/cityhunt/internal/workflows"
)

// progressor consumes challenge completions from JetStream and turns them
// into level unlocks. In workflow mode each completion starts a level
// completion workflow; otherwise progression is applied here, which drains
// any backlog left after switching the API back to direct mode. Completions
// and unlocks are re-broadcast as typed messages for /ws/events.
func main() {
	cfg, err := config.Load("cityhunt-progressor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("cityhunt-progressor", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// The publisher owns stream setup, so create it before subscribing.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	var sink ports.CompletionSink
	switch cfg.Game.ProgressionMode {
	case config.ProgressionWorkflow:
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer tc.Close()
		sink = workflows.NewStarter(tc, cfg.Temporal.TaskQueue)
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()

		var cache ports.CacheService
		if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache = vc
		}
		sink = usecases.NewProgressionService(postgres.NewProgressRepo(db), pub, cache, cfg.Game.TotalLevels)
	}

	err = sub.SubscribeChallengeCompleted(ctx, func(ctx context.Context, event *domain.ChallengeCompleted) error {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := sink.ChallengeCompleted(ctx, *event); err != nil {
			return err
		}
		broadcast(ctx, pub, "challenge_completed", event)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe completions: %v", err)
	}

	err = sub.SubscribeLevelUnlocked(ctx, func(ctx context.Context, event *domain.LevelUnlocked) error {
		broadcast(ctx, pub, "level_unlocked", event)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe unlocks: %v", err)
	}

	slog.Info("progressor started", "mode", cfg.Game.ProgressionMode)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down progressor", "signal", sig.String())
	cancel()
}

// broadcast publishes event to live clients with a type tag. Failures are
// logged only; the durable event was already handled.
func broadcast(ctx context.Context, pub *natsadapter.Publisher, kind string, event any) {
	data, err := json.Marshal(struct {
		Type  string `json:"type"`
		Event any    `json:"event"`
	}{Type: kind, Event: event})
	if err == nil {
		err = pub.PublishBroadcast(ctx, data)
	}
	if err != nil {
		slog.Warn("broadcast failed", "type", kind, "error", err)
	}
}
