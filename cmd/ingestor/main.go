package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/samirrijal/cityhunt/internal/adapters/postgres"
	"github.com/samirrijal/cityhunt/internal/adapters/valkey"
	"github.com/samirrijal/cityhunt/internal/pkg/config"
	"github.com/samirrijal/cityhunt/internal/pkg/logging"
)

// ingestor loads a hunt manifest into the levels table.
//
//	ingestor [manifest.json|https://...]
func main() {
	cfg, err := config.Load("cityhunt-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("cityhunt-ingestor", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	src := "manifest.json"
	if len(os.Args) > 1 {
		src = os.Args[1]
	}

	client := &http.Client{Timeout: 60 * time.Second}
	manifest, err := ReadManifest(ctx, client, src)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}
	levels, err := manifest.ToLevels(cfg.Game.RadiusMeters)
	if err != nil {
		log.Fatalf("invalid manifest: %v", err)
	}
	if len(levels) != cfg.Game.TotalLevels {
		slog.Warn("manifest level count differs from game.total_levels",
			"levels", len(levels), "total_levels", cfg.Game.TotalLevels)
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := postgres.NewLevelRepo(db).UpsertBatch(ctx, levels); err != nil {
		log.Fatalf("upsert levels: %v", err)
	}

	// Cached level lists are stale now.
	if vc, err := valkey.New(cfg.Valkey.Addr); err == nil {
		keys := []string{"levels:all"}
		for _, l := range levels {
			keys = append(keys, "levels:id:"+strconv.Itoa(l.ID))
		}
		for _, k := range keys {
			if err := vc.Delete(ctx, k); err != nil {
				slog.Warn("levels cache not cleared", "key", k, "error", err)
			}
		}
		vc.Close()
	}

	slog.Info("ingestion complete", "source", manifest.Source, "levels", len(levels))
}
