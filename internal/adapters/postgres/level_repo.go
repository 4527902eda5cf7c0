package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// LevelRepo implements ports.LevelRepository with pgx.
type LevelRepo struct {
	db *DB
}

// NewLevelRepo creates a new LevelRepo.
func NewLevelRepo(db *DB) *LevelRepo {
	return &LevelRepo{db: db}
}

// Upsert inserts or updates a single level.
func (r *LevelRepo) Upsert(ctx context.Context, l *domain.Level) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO levels (id, name, target_lat, target_lon, radius_meters)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, target_lat = EXCLUDED.target_lat,
		    target_lon = EXCLUDED.target_lon, radius_meters = EXCLUDED.radius_meters
	`, l.ID, l.Name, l.Target.Lat, l.Target.Lon, l.RadiusMeters)
	return err
}

// UpsertBatch inserts or updates many levels using pgx.Batch.
func (r *LevelRepo) UpsertBatch(ctx context.Context, levels []domain.Level) error {
	batch := &pgx.Batch{}
	for _, l := range levels {
		batch.Queue(`
			INSERT INTO levels (id, name, target_lat, target_lon, radius_meters)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, target_lat = EXCLUDED.target_lat,
			    target_lon = EXCLUDED.target_lon, radius_meters = EXCLUDED.radius_meters
		`, l.ID, l.Name, l.Target.Lat, l.Target.Lon, l.RadiusMeters)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range levels {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a level or domain.ErrLevelNotFound.
func (r *LevelRepo) GetByID(ctx context.Context, id int) (*domain.Level, error) {
	var l domain.Level
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, target_lat, target_lon, radius_meters, created_at
		FROM levels WHERE id = $1
	`, id).Scan(&l.ID, &l.Name, &l.Target.Lat, &l.Target.Lon, &l.RadiusMeters, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLevelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns all levels ordered by id.
func (r *LevelRepo) List(ctx context.Context) ([]domain.Level, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, target_lat, target_lon, radius_meters, created_at
		FROM levels ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []domain.Level
	for rows.Next() {
		var l domain.Level
		if err := rows.Scan(&l.ID, &l.Name, &l.Target.Lat, &l.Target.Lon, &l.RadiusMeters, &l.CreatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}
