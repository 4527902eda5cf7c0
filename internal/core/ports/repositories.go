package ports

import (
	"context"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// LevelRepository persists hunt levels.
type LevelRepository interface {
	Upsert(ctx context.Context, level *domain.Level) error
	GetByID(ctx context.Context, id int) (*domain.Level, error)
	List(ctx context.Context) ([]domain.Level, error)
}

// ProgressRepository persists per-player level unlocks and challenge completions.
type ProgressRepository interface {
	// Unlocked returns the unlocked level ids for a player, ascending.
	Unlocked(ctx context.Context, playerID string) ([]int, error)
	// Unlock marks a level as unlocked. Unlocking twice is a no-op.
	Unlock(ctx context.Context, playerID string, levelID int) error
	// RecordCompletion stores a completion. It returns false when the session
	// was already recorded.
	RecordCompletion(ctx context.Context, event *domain.ChallengeCompleted) (bool, error)
}
