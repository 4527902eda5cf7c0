package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/cityhunt/internal/adapters/nats"
	"github.com/samirrijal/cityhunt/internal/adapters/postgres"
	"github.com/samirrijal/cityhunt/internal/adapters/valkey"
	"github.com/samirrijal/cityhunt/internal/core/ports"
	"github.com/samirrijal/cityhunt/internal/pkg/config"
	"github.com/samirrijal/cityhunt/internal/pkg/logging"
	"github.com/samirrijal/cityhunt/internal/workflows"
)

// unlocker is the Temporal worker running the level completion workflow.
func main() {
	cfg, err := config.Load("cityhunt-unlocker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("cityhunt-unlocker", cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	activities := &workflows.LevelActivities{
		Progress:    postgres.NewProgressRepo(db),
		TotalLevels: cfg.Game.TotalLevels,
	}
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		activities.Cache = ports.CacheService(vc)
	}
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, unlocks will not be announced", "error", err)
	} else {
		defer pub.Close()
		activities.Publisher = pub
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.LevelCompletionWorkflow)
	w.RegisterActivity(activities)

	slog.Info("unlocker worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
