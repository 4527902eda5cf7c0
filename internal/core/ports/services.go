package ports

import (
	"context"

	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// EventPublisher publishes progression events to a message broker.
type EventPublisher interface {
	PublishChallengeCompleted(ctx context.Context, event *domain.ChallengeCompleted) error
	PublishLevelUnlocked(ctx context.Context, event *domain.LevelUnlocked) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to progression events from a message broker.
type EventSubscriber interface {
	SubscribeChallengeCompleted(ctx context.Context, handler func(ctx context.Context, event *domain.ChallengeCompleted) error) error
	SubscribeLevelUnlocked(ctx context.Context, handler func(ctx context.Context, event *domain.LevelUnlocked) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// CompletionSink receives finished challenges. It is the progression
// collaborator: either the progression service itself or a broker publisher.
type CompletionSink interface {
	ChallengeCompleted(ctx context.Context, event domain.ChallengeCompleted) error
}

// LocationSensor yields a single position fix. Failures are *domain.SensorError.
type LocationSensor interface {
	CurrentPosition(ctx context.Context) (domain.GeoPoint, error)
}

// CameraSensor acquires the camera stream for the AR view.
type CameraSensor interface {
	Acquire(ctx context.Context) (ar.Lease, error)
}
