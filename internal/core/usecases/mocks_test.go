package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// --- Mock LevelRepository ---

type mockLevelRepo struct {
	getByIDFn func(ctx context.Context, id int) (*domain.Level, error)
	listFn    func(ctx context.Context) ([]domain.Level, error)
}

func (m *mockLevelRepo) Upsert(ctx context.Context, level *domain.Level) error { return nil }

func (m *mockLevelRepo) GetByID(ctx context.Context, id int) (*domain.Level, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrLevelNotFound
}

func (m *mockLevelRepo) List(ctx context.Context) ([]domain.Level, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Mock ProgressRepository ---

// memProgressRepo is an in-memory ProgressRepository.
type memProgressRepo struct {
	mu          sync.Mutex
	unlocked    map[string][]int
	completions map[string]bool
	recordErr   error
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{unlocked: map[string][]int{}, completions: map[string]bool{}}
}

func (m *memProgressRepo) Unlocked(ctx context.Context, playerID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.unlocked[playerID]...), nil
}

func (m *memProgressRepo) Unlock(ctx context.Context, playerID string, levelID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.unlocked[playerID] {
		if l == levelID {
			return nil
		}
	}
	m.unlocked[playerID] = append(m.unlocked[playerID], levelID)
	return nil
}

func (m *memProgressRepo) RecordCompletion(ctx context.Context, event *domain.ChallengeCompleted) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return false, m.recordErr
	}
	if m.completions[event.SessionID] {
		return false, nil
	}
	m.completions[event.SessionID] = true
	return true, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	unlocked []domain.LevelUnlocked
}

func (m *mockPublisher) PublishChallengeCompleted(ctx context.Context, event *domain.ChallengeCompleted) error {
	return nil
}

func (m *mockPublisher) PublishLevelUnlocked(ctx context.Context, event *domain.LevelUnlocked) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocked = append(m.unlocked, *event)
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	c.hits++
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock CompletionSink ---

type mockSink struct {
	mu     sync.Mutex
	events []domain.ChallengeCompleted
	err    error
}

func (m *mockSink) ChallengeCompleted(ctx context.Context, event domain.ChallengeCompleted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockSink) all() []domain.ChallengeCompleted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChallengeCompleted(nil), m.events...)
}

// --- Sensors ---

type locationFn func(ctx context.Context) (domain.GeoPoint, error)

func (f locationFn) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) { return f(ctx) }

func fixAt(lat, lon float64) locationFn {
	return func(ctx context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: lat, Lon: lon}, nil
	}
}

type cameraFn func(ctx context.Context) (ar.Lease, error)

func (f cameraFn) Acquire(ctx context.Context) (ar.Lease, error) { return f(ctx) }
