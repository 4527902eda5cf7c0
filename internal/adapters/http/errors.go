package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, level_locked, camera_permission_denied, ...
	Message   string `json:"message"` // localized when it is shown to players
	Retryable *bool  `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

func errConflict(c *fiber.Ctx, code, msg string) error {
	return newError(c, fiber.StatusConflict, code, msg)
}

// errSensor reports a sensor acquisition failure the player has to act on.
func errSensor(c *fiber.Ctx, p *i18n.Printer, se *domain.SensorError) error {
	var msg string
	switch se.Sensor {
	case domain.SensorCamera:
		msg = p.CameraFailure(se.Reason)
	case domain.SensorOrientation:
		if se.Reason == domain.ReasonPermissionDenied {
			msg = p.Sprintf(i18n.KeyOrientationDenied)
		} else {
			msg = p.Sprintf(i18n.KeyOrientationNeedsGrant)
		}
	default:
		msg = p.LocationFailure(se.Reason, 0)
	}
	retryable := se.Retryable()
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(fiber.StatusUnprocessableEntity).JSON(APIError{
		Status:    fiber.StatusUnprocessableEntity,
		Code:      string(se.Sensor) + "_" + string(se.Reason),
		Message:   msg,
		Retryable: &retryable,
		RequestID: reqID,
	})
}

// errFromDomain maps usecase errors onto the API error envelope.
// levelID is only used for the locked-level message.
func errFromDomain(c *fiber.Ctx, p *i18n.Printer, levelID int, err error) error {
	var se *domain.SensorError
	switch {
	case errors.As(err, &se):
		return errSensor(c, p, se)
	case errors.Is(err, domain.ErrLevelNotFound):
		return errNotFound(c, "level not found")
	case errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, "challenge session not found")
	case errors.Is(err, domain.ErrLevelLocked):
		return newError(c, fiber.StatusForbidden, "level_locked", p.Sprintf(i18n.KeyLevelLocked, levelID))
	case errors.Is(err, domain.ErrTargetNotVisible):
		return errConflict(c, "target_not_visible", err.Error())
	case errors.Is(err, domain.ErrChallengeClosed), errors.Is(err, domain.ErrChallengeCompleted):
		return errConflict(c, "challenge_closed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusGatewayTimeout, "timeout", "request timed out")
	}
	LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
	return errInternal(c, "internal error")
}
