package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/ports"
	"github.com/samirrijal/cityhunt/internal/pkg/metrics"
)

// LevelActivities holds the activity implementations for the level
// completion workflow.
type LevelActivities struct {
	Progress    ports.ProgressRepository
	Publisher   ports.EventPublisher
	Cache       ports.CacheService
	TotalLevels int
}

// RecordCompletion persists the completion and reports whether it was new.
func (a *LevelActivities) RecordCompletion(ctx context.Context, event domain.ChallengeCompleted) (bool, error) {
	inserted, err := a.Progress.RecordCompletion(ctx, &event)
	if err != nil {
		return false, fmt.Errorf("record completion %s: %w", event.SessionID, err)
	}
	return inserted, nil
}

// UnlockNextLevel unlocks the level after levelID and returns it, or 0 when
// levelID was the last one.
func (a *LevelActivities) UnlockNextLevel(ctx context.Context, playerID string, levelID int) (int, error) {
	next := levelID + 1
	if next > a.TotalLevels {
		return 0, nil
	}
	if err := a.Progress.Unlock(ctx, playerID, next); err != nil {
		return 0, fmt.Errorf("unlock level %d: %w", next, err)
	}
	if a.Cache != nil {
		_ = a.Cache.Delete(ctx, "progress:"+playerID)
	}
	metrics.LevelsUnlocked.Inc()
	return next, nil
}

// PublishLevelUnlocked announces the unlock to connected clients.
func (a *LevelActivities) PublishLevelUnlocked(ctx context.Context, playerID string, levelID int) error {
	if a.Publisher == nil {
		slog.Info("level unlocked (no publisher)", "player_id", playerID, "level_id", levelID)
		return nil
	}
	return a.Publisher.PublishLevelUnlocked(ctx, &domain.LevelUnlocked{
		PlayerID:   playerID,
		LevelID:    levelID,
		UnlockedAt: time.Now(),
	})
}
