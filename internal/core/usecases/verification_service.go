package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/language"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/ports"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
	"github.com/samirrijal/cityhunt/internal/pkg/metrics"
	"github.com/samirrijal/cityhunt/internal/pkg/telemetry"
)

// VerificationService checks a player's position against a level geofence.
type VerificationService struct {
	levels      *LevelService
	progression *ProgressionService
	timeout     time.Duration
	now         func() time.Time
}

// NewVerificationService creates a new VerificationService. progression may
// be nil, in which case every level is open.
func NewVerificationService(levels *LevelService, progression *ProgressionService, timeout time.Duration) *VerificationService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VerificationService{levels: levels, progression: progression, timeout: timeout, now: time.Now}
}

// VerifyLocation takes one position fix from sensor and checks it against the
// level's geofence. Sensor failures and out-of-range fixes come back as an
// unverified result with a reason and a localized message; the returned error
// is reserved for unknown or locked levels, storage failures and caller
// cancellation.
func (s *VerificationService) VerifyLocation(ctx context.Context, playerID string, levelID int, sensor ports.LocationSensor, lang language.Tag) (*domain.VerificationResult, error) {
	ctx, span := telemetry.Tracer("cityhunt/verification").Start(ctx, "VerifyLocation")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrPlayerID, playerID),
		attribute.Int(telemetry.AttrLevelID, levelID),
	)

	level, err := s.levels.Get(ctx, levelID)
	if err != nil {
		return nil, err
	}
	if s.progression != nil {
		ok, err := s.progression.IsUnlocked(ctx, playerID, levelID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrLevelLocked
		}
	}

	res, err := s.Verify(ctx, level.Geofence(), sensor, lang)
	if err != nil {
		return nil, err
	}
	res.LevelID = levelID
	if res.Reason != "" {
		span.SetAttributes(attribute.String(telemetry.AttrReason, string(res.Reason)))
	}
	return res, nil
}

// Verify checks a single fix against fence. It does not consult levels or
// progression.
func (s *VerificationService) Verify(ctx context.Context, fence domain.Geofence, sensor ports.LocationSensor, lang language.Tag) (*domain.VerificationResult, error) {
	printer := i18n.NewPrinter(lang)
	res := &domain.VerificationResult{
		RadiusMeters: fence.RadiusMeters,
		CheckedAt:    s.now(),
	}

	pos, err := s.Locate(ctx, sensor)
	if err != nil {
		if ctx.Err() != nil {
			// Caller went away; the late result is discarded.
			return nil, ctx.Err()
		}
		reason := domain.ReasonOf(err)
		res.Reason = reason
		res.Retryable = reason.Retryable()
		res.Message = printer.LocationFailure(reason, fence.RadiusMeters)
		metrics.VerificationsTotal.WithLabelValues(string(reason)).Inc()
		slog.Info("verification failed", "reason", reason, "error", err)
		return res, nil
	}

	dist := pos.DistanceTo(fence.Center)
	res.Position = &pos
	res.DistanceMeters = &dist
	metrics.VerificationDistance.Observe(dist)

	if !fence.Contains(pos) {
		res.Reason = domain.ReasonOutOfRange
		res.Retryable = true
		res.Message = printer.LocationFailure(domain.ReasonOutOfRange, fence.RadiusMeters)
		metrics.VerificationsTotal.WithLabelValues(string(domain.ReasonOutOfRange)).Inc()
		slog.Info("verification failed", "reason", domain.ReasonOutOfRange, "distance_m", dist, "radius_m", fence.RadiusMeters)
		return res, nil
	}

	res.Verified = true
	res.Message = printer.Sprintf(i18n.KeyVerified)
	metrics.VerificationsTotal.WithLabelValues("verified").Inc()
	return res, nil
}

// Locate takes a single fix from sensor under the configured timeout. The
// returned error is a *domain.SensorError unless ctx itself was cancelled.
func (s *VerificationService) Locate(ctx context.Context, sensor ports.LocationSensor) (domain.GeoPoint, error) {
	if sensor == nil {
		return domain.GeoPoint{}, domain.NewSensorError(domain.SensorLocation, domain.ReasonUnsupported, nil)
	}

	fixCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type fix struct {
		pos domain.GeoPoint
		err error
	}
	ch := make(chan fix, 1)
	go func() {
		pos, err := sensor.CurrentPosition(fixCtx)
		ch <- fix{pos: pos, err: err}
	}()

	select {
	case f := <-ch:
		if f.err != nil {
			return domain.GeoPoint{}, classifyLocationError(f.err)
		}
		if !f.pos.Valid() {
			return domain.GeoPoint{}, domain.NewSensorError(domain.SensorLocation, domain.ReasonPositionUnavailable, nil)
		}
		return f.pos, nil
	case <-fixCtx.Done():
		if ctx.Err() != nil {
			return domain.GeoPoint{}, ctx.Err()
		}
		return domain.GeoPoint{}, domain.NewSensorError(domain.SensorLocation, domain.ReasonTimeout, fixCtx.Err())
	}
}

func classifyLocationError(err error) error {
	var se *domain.SensorError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewSensorError(domain.SensorLocation, domain.ReasonTimeout, err)
	}
	return domain.NewSensorError(domain.SensorLocation, domain.ReasonOther, err)
}
