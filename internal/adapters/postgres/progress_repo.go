package postgres

import (
	"context"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// ProgressRepo implements ports.ProgressRepository with pgx.
type ProgressRepo struct {
	db *DB
}

// NewProgressRepo creates a new ProgressRepo.
func NewProgressRepo(db *DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Unlocked returns the unlocked level ids for a player, ascending.
func (r *ProgressRepo) Unlocked(ctx context.Context, playerID string) ([]int, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT level_id FROM player_levels
		WHERE player_id = $1
		ORDER BY level_id
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Unlock marks a level as unlocked for a player.
func (r *ProgressRepo) Unlock(ctx context.Context, playerID string, levelID int) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO player_levels (player_id, level_id)
		VALUES ($1, $2)
		ON CONFLICT (player_id, level_id) DO NOTHING
	`, playerID, levelID)
	return err
}

// RecordCompletion stores a completion keyed by session id. Replays of the
// same session are ignored and reported as not inserted.
func (r *ProgressRepo) RecordCompletion(ctx context.Context, e *domain.ChallengeCompleted) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		INSERT INTO challenge_completions (session_id, player_id, level_id, kind, score, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO NOTHING
	`, e.SessionID, e.PlayerID, e.LevelID, string(e.Kind), e.Score, e.CompletedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
