package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/ports"
)

// LevelService handles level lookups.
type LevelService struct {
	levels   ports.LevelRepository
	cache    ports.CacheService
	defaults []domain.Level
}

// NewLevelService creates a new LevelService. defaults are served when the
// repository is nil or holds no levels.
func NewLevelService(levels ports.LevelRepository, cache ports.CacheService, defaults []domain.Level) *LevelService {
	return &LevelService{levels: levels, cache: cache, defaults: defaults}
}

// DefaultLevels builds total levels sharing one target geofence.
func DefaultLevels(target domain.GeoPoint, radiusMeters float64, total int) []domain.Level {
	levels := make([]domain.Level, 0, total)
	for i := 1; i <= total; i++ {
		levels = append(levels, domain.Level{
			ID:           i,
			Name:         fmt.Sprintf("Level %d", i),
			Target:       target,
			RadiusMeters: radiusMeters,
		})
	}
	return levels
}

// List returns every level ordered by id.
func (s *LevelService) List(ctx context.Context) ([]domain.Level, error) {
	const cacheKey = "levels:all"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var levels []domain.Level
			if err := json.Unmarshal(data, &levels); err == nil {
				return levels, nil
			}
		}
	}

	if s.levels == nil {
		return s.defaults, nil
	}
	levels, err := s.levels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	if len(levels) == 0 {
		levels = s.defaults
	}

	// Levels change only on deploy; cache for 10 minutes
	if s.cache != nil {
		if data, err := json.Marshal(levels); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return levels, nil
}

// Get returns a single level.
func (s *LevelService) Get(ctx context.Context, id int) (*domain.Level, error) {
	cacheKey := "levels:id:" + strconv.Itoa(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var level domain.Level
			if err := json.Unmarshal(data, &level); err == nil {
				return &level, nil
			}
		}
	}

	level, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(level); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return level, nil
}

func (s *LevelService) lookup(ctx context.Context, id int) (*domain.Level, error) {
	if s.levels != nil {
		level, err := s.levels.GetByID(ctx, id)
		if err == nil {
			return level, nil
		}
		if !errors.Is(err, domain.ErrLevelNotFound) {
			return nil, fmt.Errorf("get level %d: %w", id, err)
		}
	}
	for i := range s.defaults {
		if s.defaults[i].ID == id {
			level := s.defaults[i]
			return &level, nil
		}
	}
	return nil, domain.ErrLevelNotFound
}

// Total returns the number of levels in the hunt.
func (s *LevelService) Total(ctx context.Context) (int, error) {
	levels, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(levels), nil
}
