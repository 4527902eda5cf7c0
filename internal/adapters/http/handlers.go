package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/samirrijal/cityhunt/internal/adapters/sensors"
	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/usecases"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
)

// requestPrinter picks the response language from ?lang= or Accept-Language.
func requestPrinter(c *fiber.Ctx, deps *Dependencies) *i18n.Printer {
	def := deps.defaultLanguage()
	if q := c.Query("lang"); q != "" {
		return i18n.NewPrinter(i18n.Match(q, def))
	}
	return i18n.NewPrinter(i18n.Match(c.Get(fiber.HeaderAcceptLanguage), def))
}

func levelParam(c *fiber.Ctx) (int, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	c.Locals(localLevelID, id)
	return id, true
}

func sessionParam(c *fiber.Ctx) string {
	id := utils.CopyString(c.Params("id"))
	c.Locals(localSessionID, id)
	return id
}

// locationRequest carries a one-shot location fix, or the error the browser
// reported instead of one.
type locationRequest struct {
	PlayerID string   `json:"player_id"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Error    string   `json:"error"`
}

// sensor validates the request and returns the reading as a location sensor.
// A non-empty string is a validation message.
func (r locationRequest) sensor() (sensors.ReportedLocation, string) {
	if r.PlayerID == "" {
		return sensors.ReportedLocation{}, "player_id is required"
	}
	if r.Error != "" {
		return sensors.ReportedLocation{Failure: r.Error}, ""
	}
	if r.Lat == nil || r.Lon == nil {
		return sensors.ReportedLocation{}, "lat and lon are required unless error is set"
	}
	p := domain.GeoPoint{Lat: *r.Lat, Lon: *r.Lon}
	if !p.Valid() {
		return sensors.ReportedLocation{}, "lat must be within [-90, 90] and lon within [-180, 180]"
	}
	return sensors.ReportedLocation{Point: &p}, ""
}

// ListLevelsHandler returns the hunt's levels.
func ListLevelsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		levels, err := deps.Levels.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, requestPrinter(c, deps), 0, err)
		}

		pg := pageFromQuery(c, len(levels))
		start, end := pg.Bounds()
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: levels[start:end], Pagination: pg})
	}
}

// GetLevelHandler returns one level and its geofence.
func GetLevelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := levelParam(c)
		if !ok {
			return errBadRequest(c, "level id must be a positive integer")
		}
		level, err := deps.Levels.Get(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, requestPrinter(c, deps), id, err)
		}
		return c.JSON(fiber.Map{
			"level":    level,
			"geofence": level.Geofence(),
			"bounds":   level.Geofence().Bounds(),
		})
	}
}

// VerifyLevelHandler checks a reported position against a level's geofence.
// Sensor failures and out-of-range fixes are 200 responses with
// verified=false.
func VerifyLevelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := levelParam(c)
		if !ok {
			return errBadRequest(c, "level id must be a positive integer")
		}
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		sensor, msg := req.sensor()
		if msg != "" {
			return errBadRequest(c, msg)
		}
		c.Locals(localPlayerID, req.PlayerID)

		p := requestPrinter(c, deps)
		res, err := deps.Verification.VerifyLocation(c.UserContext(), req.PlayerID, id, sensor, p.Language())
		if err != nil {
			return errFromDomain(c, p, id, err)
		}
		return c.JSON(res)
	}
}

// LocationChallengeHandler completes the geolocation mini-challenge.
func LocationChallengeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := levelParam(c)
		if !ok {
			return errBadRequest(c, "level id must be a positive integer")
		}
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		sensor, msg := req.sensor()
		if msg != "" {
			return errBadRequest(c, msg)
		}
		c.Locals(localPlayerID, req.PlayerID)

		p := requestPrinter(c, deps)
		event, err := deps.Challenges.CompleteLocationChallenge(c.UserContext(), req.PlayerID, id, sensor)
		if err != nil {
			return errFromDomain(c, p, id, err)
		}
		return c.JSON(event)
	}
}

// PlayerProgressHandler lists the levels a player has unlocked.
func PlayerProgressHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		player := utils.CopyString(c.Params("id"))
		if player == "" {
			return errBadRequest(c, "player id is required")
		}
		c.Locals(localPlayerID, player)

		progress, err := deps.Progression.Progress(c.UserContext(), player)
		if err != nil {
			return errFromDomain(c, requestPrinter(c, deps), 0, err)
		}
		return c.JSON(progress)
	}
}

type startChallengeRequest struct {
	PlayerID               string `json:"player_id"`
	LevelID                int    `json:"level_id"`
	NeedsOrientationGrant  bool   `json:"needs_orientation_grant"`
	OrientationUnsupported bool   `json:"orientation_unsupported"`
	// Camera is the outcome of the browser's camera request: granted,
	// permission_denied, unsupported or any other error name.
	Camera string `json:"camera"`
}

func (r startChallengeRequest) capability() ar.Capability {
	switch {
	case r.OrientationUnsupported:
		return ar.Unsupported
	case r.NeedsOrientationGrant:
		return ar.NeedsGrant
	}
	return ar.AlwaysAvailable
}

// challengeResponse is a frame plus an optional hint for the player.
type challengeResponse struct {
	ar.Frame
	Hint string `json:"hint,omitempty"`
}

func frameResponse(p *i18n.Printer, f ar.Frame) challengeResponse {
	res := challengeResponse{Frame: f}
	switch {
	case f.Progress.Completed:
		res.Hint = p.Sprintf(i18n.KeyChallengeCompleted, f.Progress.Captured)
	case f.Permission == ar.PermissionPrompt.String() && f.Capability == ar.NeedsGrant.String():
		res.Hint = p.Sprintf(i18n.KeyOrientationNeedsGrant)
	case f.Permission == ar.PermissionDenied.String():
		res.Hint = p.Sprintf(i18n.KeyOrientationDenied)
	}
	return res
}

// StartArChallengeHandler opens an AR session and places its targets.
func StartArChallengeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startChallengeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.PlayerID == "" {
			return errBadRequest(c, "player_id is required")
		}
		if req.LevelID <= 0 {
			return errBadRequest(c, "level_id must be a positive integer")
		}
		c.Locals(localPlayerID, req.PlayerID)
		c.Locals(localLevelID, req.LevelID)

		p := requestPrinter(c, deps)
		sess, err := deps.Challenges.StartArChallenge(c.UserContext(), usecases.StartOptions{
			PlayerID:   req.PlayerID,
			LevelID:    req.LevelID,
			Capability: req.capability(),
			Camera:     sensors.ReportedCamera{Status: req.Camera},
		})
		if err != nil {
			return errFromDomain(c, p, req.LevelID, err)
		}
		c.Locals(localSessionID, sess.ID())

		c.Location("/v1/challenges/ar/" + sess.ID())
		return c.Status(fiber.StatusCreated).JSON(frameResponse(p, sess.Frame()))
	}
}

// GetChallengeHandler renders the session's current frame.
func GetChallengeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := sessionParam(c)
		p := requestPrinter(c, deps)
		frame, err := deps.Challenges.View(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, p, 0, err)
		}
		return c.JSON(frameResponse(p, frame))
	}
}

// OrientationHandler feeds one raw orientation event into a session.
func OrientationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := sessionParam(c)
		var raw ar.RawOrientation
		if err := c.BodyParser(&raw); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		p := requestPrinter(c, deps)
		changed, err := deps.Challenges.UpdateOrientation(c.UserContext(), id, raw)
		if err != nil {
			return errFromDomain(c, p, 0, err)
		}
		frame, err := deps.Challenges.View(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, p, 0, err)
		}
		return c.JSON(fiber.Map{"changed": changed, "frame": frameResponse(p, frame)})
	}
}

// PermissionHandler records a user-initiated orientation permission result.
func PermissionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := sessionParam(c)
		var req struct {
			Granted *bool `json:"granted"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Granted == nil {
			return errBadRequest(c, "granted is required")
		}

		p := requestPrinter(c, deps)
		state, err := deps.Challenges.RequestOrientationPermission(c.UserContext(), id, *req.Granted)
		if err != nil {
			return errFromDomain(c, p, 0, err)
		}
		return c.JSON(fiber.Map{"permission": state.String()})
	}
}

// captureResponse reports a capture; Message is set on completion.
type captureResponse struct {
	ar.CaptureResult
	Message string `json:"message,omitempty"`
}

// CaptureHandler taps a target in view.
func CaptureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := sessionParam(c)
		target := utils.CopyString(c.Params("target"))

		p := requestPrinter(c, deps)
		res, err := deps.Challenges.Capture(c.UserContext(), id, target)
		if err != nil {
			return errFromDomain(c, p, 0, err)
		}
		out := captureResponse{CaptureResult: res}
		if res.Completed {
			out.Message = p.Sprintf(i18n.KeyChallengeCompleted, res.Progress.Captured)
		}
		return c.JSON(out)
	}
}

// AbandonHandler closes a session and releases its resources.
func AbandonHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := sessionParam(c)
		if err := deps.Challenges.Abandon(c.UserContext(), id); err != nil {
			return errFromDomain(c, requestPrinter(c, deps), 0, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
