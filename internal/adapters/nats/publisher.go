package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// Subjects.
const (
	SubjectCompletedPrefix = "hunt.challenge.completed."
	SubjectUnlockedPrefix  = "hunt.level.unlocked."
	SubjectBroadcast       = "hunt.updates.broadcast"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "HUNT_COMPLETIONS",
			Subjects:  []string{SubjectCompletedPrefix + ">"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "HUNT_UNLOCKS",
			Subjects:  []string{SubjectUnlockedPrefix + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishChallengeCompleted publishes a completion. The session id doubles as
// the JetStream message id so redeliveries from the API are deduplicated.
func (p *Publisher) PublishChallengeCompleted(ctx context.Context, event *domain.ChallengeCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectCompletedPrefix+strconv.Itoa(event.LevelID), data,
		nats.MsgId(event.SessionID),
		nats.Context(ctx),
	)
	return err
}

// PublishLevelUnlocked publishes an unlock on the player's subject.
func (p *Publisher) PublishLevelUnlocked(ctx context.Context, event *domain.LevelUnlocked) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectUnlockedPrefix+event.PlayerID, data, nats.Context(ctx))
	return err
}

// PublishBroadcast sends data to live clients over core NATS. Nothing is
// persisted; clients that are not connected miss it.
func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish(SubjectBroadcast, data)
}

// ChallengeCompleted implements ports.CompletionSink for async progression.
func (p *Publisher) ChallengeCompleted(ctx context.Context, event domain.ChallengeCompleted) error {
	return p.PublishChallengeCompleted(ctx, &event)
}

// Conn exposes the underlying connection for readiness checks and relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
