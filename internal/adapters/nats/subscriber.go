package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// Durable consumer names. They survive restarts, so a progressor that was
// down picks up where it left off.
const (
	DurableProgressor     = "progressor"
	DurableUnlockNotifier = "unlock-notifier"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeChallengeCompleted delivers every completion to handler. A handler
// error naks the message for redelivery, up to five attempts.
func (s *Subscriber) SubscribeChallengeCompleted(ctx context.Context, handler func(ctx context.Context, event *domain.ChallengeCompleted) error) error {
	return subscribe(ctx, s.js, SubjectCompletedPrefix+">", DurableProgressor, 5, handler)
}

// SubscribeLevelUnlocked delivers every unlock to handler.
func (s *Subscriber) SubscribeLevelUnlocked(ctx context.Context, handler func(ctx context.Context, event *domain.LevelUnlocked) error) error {
	return subscribe(ctx, s.js, SubjectUnlockedPrefix+">", DurableUnlockNotifier, 3, handler)
}

func subscribe[T any](ctx context.Context, js nats.JetStreamContext, subject, durable string, maxDeliver int, handler func(context.Context, *T) error) error {
	_, err := js.Subscribe(subject, func(msg *nats.Msg) {
		var event T
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// Poison message; redelivery cannot fix it
			slog.Error("decode event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &event); err != nil {
			slog.Warn("event handler failed", "subject", msg.Subject, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(maxDeliver),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection. Durable consumers are kept on the server.
func (s *Subscriber) Close() {
	_ = s.conn.Drain()
}
