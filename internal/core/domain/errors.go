package domain

import (
	"errors"
	"fmt"
)

var (
	ErrLevelNotFound      = errors.New("level not found")
	ErrLevelLocked        = errors.New("level is locked")
	ErrSessionNotFound    = errors.New("challenge session not found")
	ErrTargetNotVisible   = errors.New("target is not in view")
	ErrChallengeCompleted = errors.New("challenge already completed")
	ErrChallengeClosed    = errors.New("challenge session closed")
	ErrAlreadySpawned     = errors.New("targets already placed for this session")
)

// SensorKind identifies the device sensor behind a failure.
type SensorKind string

const (
	SensorLocation    SensorKind = "location"
	SensorCamera      SensorKind = "camera"
	SensorOrientation SensorKind = "orientation"
)

// FailureReason classifies why a sensor flow did not produce a usable result.
type FailureReason string

const (
	ReasonUnsupported         FailureReason = "unsupported"
	ReasonPermissionDenied    FailureReason = "permission_denied"
	ReasonPositionUnavailable FailureReason = "position_unavailable"
	ReasonTimeout             FailureReason = "timeout"
	ReasonOutOfRange          FailureReason = "out_of_range"
	ReasonOther               FailureReason = "other"
)

// Retryable reports whether a fresh, user-initiated request may succeed.
// Missing sensor APIs never recover on their own.
func (r FailureReason) Retryable() bool {
	switch r {
	case ReasonPermissionDenied, ReasonPositionUnavailable, ReasonTimeout, ReasonOutOfRange, ReasonOther:
		return true
	default:
		return false
	}
}

// ParseFailureReason maps a client-reported code onto a reason.
// Unknown codes become ReasonOther.
func ParseFailureReason(code string) FailureReason {
	switch FailureReason(code) {
	case ReasonUnsupported, ReasonPermissionDenied, ReasonPositionUnavailable, ReasonTimeout, ReasonOutOfRange:
		return FailureReason(code)
	}
	switch code {
	case "NotAllowedError", "PERMISSION_DENIED":
		return ReasonPermissionDenied
	case "POSITION_UNAVAILABLE":
		return ReasonPositionUnavailable
	case "TIMEOUT":
		return ReasonTimeout
	case "NotSupportedError":
		return ReasonUnsupported
	}
	return ReasonOther
}

// SensorError is a classified sensor acquisition failure.
type SensorError struct {
	Sensor SensorKind
	Reason FailureReason
	Err    error
}

// NewSensorError builds a SensorError wrapping cause (which may be nil).
func NewSensorError(sensor SensorKind, reason FailureReason, cause error) *SensorError {
	return &SensorError{Sensor: sensor, Reason: reason, Err: cause}
}

func (e *SensorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s sensor: %s: %v", e.Sensor, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s sensor: %s", e.Sensor, e.Reason)
}

func (e *SensorError) Unwrap() error { return e.Err }

// Is matches another SensorError with the same reason (and sensor, if set).
func (e *SensorError) Is(target error) bool {
	t, ok := target.(*SensorError)
	if !ok {
		return false
	}
	if t.Sensor != "" && t.Sensor != e.Sensor {
		return false
	}
	return t.Reason == e.Reason
}

// Retryable reports whether the user may re-issue the request.
func (e *SensorError) Retryable() bool { return e.Reason.Retryable() }

// Reason sentinels usable with errors.Is regardless of sensor.
var (
	ErrUnsupported      = &SensorError{Reason: ReasonUnsupported}
	ErrPermissionDenied = &SensorError{Reason: ReasonPermissionDenied}
	ErrTimeout          = &SensorError{Reason: ReasonTimeout}
	ErrUnavailable      = &SensorError{Reason: ReasonPositionUnavailable}
)

// ReasonOf extracts the failure reason from err, defaulting to ReasonOther.
func ReasonOf(err error) FailureReason {
	var se *SensorError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ReasonOther
}
