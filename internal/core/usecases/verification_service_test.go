package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/usecases"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
)

func newVerifier(timeout time.Duration) *usecases.VerificationService {
	levels := usecases.NewLevelService(nil, nil, usecases.DefaultLevels(monas, 500, 5))
	progression := usecases.NewProgressionService(newMemProgressRepo(), nil, nil, 5)
	return usecases.NewVerificationService(levels, progression, timeout)
}

func TestVerifyLocation_AtTarget(t *testing.T) {
	svc := newVerifier(time.Second)
	res, err := svc.VerifyLocation(context.Background(), "p1", 1, fixAt(monas.Lat, monas.Lon), i18n.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Verified {
		t.Fatalf("expected verified, got %+v", res)
	}
	if res.DistanceMeters == nil || *res.DistanceMeters != 0 {
		t.Errorf("expected zero distance, got %v", res.DistanceMeters)
	}
	if res.LevelID != 1 {
		t.Errorf("expected level 1, got %d", res.LevelID)
	}
}

func TestVerifyLocation_OutOfRange(t *testing.T) {
	svc := newVerifier(time.Second)
	res, err := svc.VerifyLocation(context.Background(), "p1", 1, fixAt(monas.Lat+0.01, monas.Lon), i18n.Indonesian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Verified {
		t.Fatal("expected verification to fail ~1.1 km away")
	}
	if res.Reason != domain.ReasonOutOfRange || !res.Retryable {
		t.Errorf("expected retryable out_of_range, got %s (%v)", res.Reason, res.Retryable)
	}
	if d := *res.DistanceMeters; d < 1100 || d > 1125 {
		t.Errorf("expected ~1112 m, got %.1f", d)
	}
	if !strings.Contains(res.Message, "500 m") {
		t.Errorf("expected radius label in message, got %q", res.Message)
	}
}

func TestVerifyLocation_SensorFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		reason    domain.FailureReason
		retryable bool
	}{
		{"denied", domain.NewSensorError(domain.SensorLocation, domain.ReasonPermissionDenied, nil), domain.ReasonPermissionDenied, true},
		{"unavailable", domain.NewSensorError(domain.SensorLocation, domain.ReasonPositionUnavailable, nil), domain.ReasonPositionUnavailable, true},
		{"unsupported", domain.NewSensorError(domain.SensorLocation, domain.ReasonUnsupported, nil), domain.ReasonUnsupported, false},
		{"unclassified", errors.New("boom"), domain.ReasonOther, true},
	}
	svc := newVerifier(time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sensor := locationFn(func(ctx context.Context) (domain.GeoPoint, error) {
				return domain.GeoPoint{}, tt.err
			})
			res, err := svc.VerifyLocation(context.Background(), "p1", 1, sensor, i18n.English)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Verified {
				t.Fatal("expected unverified result")
			}
			if res.Reason != tt.reason {
				t.Errorf("expected %s, got %s", tt.reason, res.Reason)
			}
			if res.Retryable != tt.retryable {
				t.Errorf("expected retryable=%v", tt.retryable)
			}
			if res.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestVerifyLocation_NilSensorUnsupported(t *testing.T) {
	svc := newVerifier(time.Second)
	res, err := svc.VerifyLocation(context.Background(), "p1", 1, nil, i18n.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Reason != domain.ReasonUnsupported {
		t.Errorf("expected unsupported, got %s", res.Reason)
	}
}

func TestVerifyLocation_Timeout(t *testing.T) {
	svc := newVerifier(20 * time.Millisecond)
	block := locationFn(func(ctx context.Context) (domain.GeoPoint, error) {
		<-ctx.Done()
		return domain.GeoPoint{}, ctx.Err()
	})
	res, err := svc.VerifyLocation(context.Background(), "p1", 1, block, i18n.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Reason != domain.ReasonTimeout || !res.Retryable {
		t.Errorf("expected retryable timeout, got %+v", res)
	}
}

func TestVerifyLocation_CallerCancelledDiscardsResult(t *testing.T) {
	svc := newVerifier(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	slow := locationFn(func(context.Context) (domain.GeoPoint, error) {
		<-release
		return monas, nil
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	res, err := svc.VerifyLocation(ctx, "p1", 1, slow, i18n.English)
	close(release)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
}

func TestVerifyLocation_LockedLevel(t *testing.T) {
	svc := newVerifier(time.Second)
	_, err := svc.VerifyLocation(context.Background(), "p1", 3, fixAt(monas.Lat, monas.Lon), i18n.English)
	if !errors.Is(err, domain.ErrLevelLocked) {
		t.Errorf("expected ErrLevelLocked, got %v", err)
	}
}

func TestVerifyLocation_UnknownLevel(t *testing.T) {
	svc := newVerifier(time.Second)
	_, err := svc.VerifyLocation(context.Background(), "p1", 42, fixAt(monas.Lat, monas.Lon), i18n.English)
	if !errors.Is(err, domain.ErrLevelNotFound) {
		t.Errorf("expected ErrLevelNotFound, got %v", err)
	}
}

func TestVerify_InvalidFix(t *testing.T) {
	svc := newVerifier(time.Second)
	fence := domain.Geofence{Center: monas, RadiusMeters: 500}
	res, err := svc.Verify(context.Background(), fence, fixAt(123, 0), i18n.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Reason != domain.ReasonPositionUnavailable {
		t.Errorf("expected position_unavailable, got %s", res.Reason)
	}
}
