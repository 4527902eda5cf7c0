// Package sensors adapts sensor readings reported by the browser to the
// sensor ports. The device owns the hardware; the server only sees what the
// client sends.
package sensors

import (
	"context"
	"errors"

	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// ReportedLocation is a one-shot location fix or failure sent by the client.
type ReportedLocation struct {
	Point *domain.GeoPoint
	// Failure is the client error code (e.g. "PERMISSION_DENIED", "timeout").
	Failure string
}

// CurrentPosition implements ports.LocationSensor.
func (r ReportedLocation) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeoPoint{}, err
	}
	if r.Failure != "" {
		return domain.GeoPoint{}, domain.NewSensorError(domain.SensorLocation, domain.ParseFailureReason(r.Failure), nil)
	}
	if r.Point == nil {
		return domain.GeoPoint{}, domain.NewSensorError(domain.SensorLocation, domain.ReasonPositionUnavailable, errors.New("no coordinates reported"))
	}
	return *r.Point, nil
}

// Camera statuses a client may report.
const (
	CameraGranted = "granted"
)

// ReportedCamera is the client's camera acquisition outcome.
type ReportedCamera struct {
	Status string
	// OnRelease runs once when the session lets go of the camera.
	OnRelease func()
}

// Acquire implements ports.CameraSensor. An empty status counts as granted.
func (r ReportedCamera) Acquire(ctx context.Context) (ar.Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Status == "" || r.Status == CameraGranted {
		return ar.NewLease(r.OnRelease), nil
	}
	reason := domain.ParseFailureReason(r.Status)
	switch reason {
	case domain.ReasonPermissionDenied, domain.ReasonUnsupported:
	default:
		reason = domain.ReasonOther
	}
	return nil, domain.NewSensorError(domain.SensorCamera, reason, nil)
}
