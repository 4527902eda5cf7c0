package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/ports"
	"github.com/samirrijal/cityhunt/internal/pkg/metrics"
	"github.com/samirrijal/cityhunt/internal/pkg/telemetry"
)

// ProgressionService records completed challenges and unlocks levels.
// Completing level N unlocks N+1; level 1 is always open.
type ProgressionService struct {
	progress    ports.ProgressRepository
	publisher   ports.EventPublisher
	cache       ports.CacheService
	totalLevels int
	now         func() time.Time
}

// NewProgressionService creates a new ProgressionService. publisher and cache
// may be nil.
func NewProgressionService(
	progress ports.ProgressRepository,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	totalLevels int,
) *ProgressionService {
	return &ProgressionService{
		progress:    progress,
		publisher:   publisher,
		cache:       cache,
		totalLevels: totalLevels,
		now:         time.Now,
	}
}

func progressKey(playerID string) string { return "progress:" + playerID }

// ChallengeCompleted implements ports.CompletionSink.
func (s *ProgressionService) ChallengeCompleted(ctx context.Context, event domain.ChallengeCompleted) error {
	_, err := s.RecordCompletion(ctx, &event)
	return err
}

// RecordCompletion stores a completion and unlocks the next level. It returns
// the unlock, or nil when nothing new was unlocked (replayed event or final
// level).
func (s *ProgressionService) RecordCompletion(ctx context.Context, event *domain.ChallengeCompleted) (*domain.LevelUnlocked, error) {
	ctx, span := telemetry.Tracer("cityhunt/progression").Start(ctx, "RecordCompletion")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrPlayerID, event.PlayerID),
		attribute.Int(telemetry.AttrLevelID, event.LevelID),
		attribute.String(telemetry.AttrSessionID, event.SessionID),
	)

	if event.PlayerID == "" {
		return nil, fmt.Errorf("completion without player id")
	}

	inserted, err := s.progress.RecordCompletion(ctx, event)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("record completion: %w", err)
	}
	if !inserted {
		slog.Debug("duplicate completion ignored", "session_id", event.SessionID)
		return nil, nil
	}

	next := event.LevelID + 1
	if next > s.totalLevels {
		slog.Info("final level completed", "player_id", event.PlayerID, "level_id", event.LevelID)
		return nil, nil
	}

	if err := s.progress.Unlock(ctx, event.PlayerID, next); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("unlock level %d: %w", next, err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, progressKey(event.PlayerID))
	}

	unlocked := &domain.LevelUnlocked{PlayerID: event.PlayerID, LevelID: next, UnlockedAt: s.now()}
	metrics.LevelsUnlocked.Inc()
	slog.Info("level unlocked", "player_id", event.PlayerID, "level_id", next)

	// Best-effort; the unlock is already persisted
	if s.publisher != nil {
		if err := s.publisher.PublishLevelUnlocked(ctx, unlocked); err != nil {
			slog.Warn("publish level unlocked", "error", err)
		}
	}

	return unlocked, nil
}

// Progress returns the levels a player has unlocked.
func (s *ProgressionService) Progress(ctx context.Context, playerID string) (*domain.PlayerProgress, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, progressKey(playerID)); err == nil {
			var p domain.PlayerProgress
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
		}
	}

	ids, err := s.progress.Unlocked(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	unlocked := []int{1}
	for _, id := range ids {
		if id > 1 && id <= s.totalLevels {
			unlocked = append(unlocked, id)
		}
	}
	sort.Ints(unlocked)
	unlocked = dedupSorted(unlocked)

	p := &domain.PlayerProgress{PlayerID: playerID, Unlocked: unlocked, Total: s.totalLevels}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, progressKey(playerID), data, 60)
		}
	}
	return p, nil
}

// IsUnlocked reports whether a player may play a level.
func (s *ProgressionService) IsUnlocked(ctx context.Context, playerID string, levelID int) (bool, error) {
	if levelID < 1 || levelID > s.totalLevels {
		return false, nil
	}
	if levelID == 1 {
		return true, nil
	}
	p, err := s.Progress(ctx, playerID)
	if err != nil {
		return false, err
	}
	return p.Has(levelID), nil
}

func dedupSorted(in []int) []int {
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}
