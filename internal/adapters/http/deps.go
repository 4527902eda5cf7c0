package http

import (
	"context"

	"github.com/nats-io/nats.go"
	"golang.org/x/text/language"

	"github.com/samirrijal/cityhunt/internal/core/usecases"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
)

// Pinger is a backing service that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Levels       *usecases.LevelService
	Progression  *usecases.ProgressionService
	Verification *usecases.VerificationService
	Challenges   *usecases.ChallengeService

	// DefaultLanguage is used when a request names no supported language.
	DefaultLanguage language.Tag
	// SpecPath points at the OpenAPI document served under /docs.
	SpecPath string

	NATS  *nats.Conn
	DB    Pinger
	Cache Pinger
}

func (d *Dependencies) defaultLanguage() language.Tag {
	if d.DefaultLanguage == language.Und {
		return i18n.English
	}
	return d.DefaultLanguage
}
