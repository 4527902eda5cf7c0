package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/core/ports"
	"github.com/samirrijal/cityhunt/internal/pkg/metrics"
)

// StartOptions describes a new AR challenge request.
type StartOptions struct {
	PlayerID string
	LevelID  int
	// Capability is how the client exposes orientation events.
	Capability ar.Capability
	// Camera is acquired before targets are placed. Nil means no camera.
	Camera ports.CameraSensor
}

// ChallengeConfig holds the tunables of the challenge service.
type ChallengeConfig struct {
	TargetCount int
	FOV         domain.FOV
	SessionTTL  time.Duration
}

type sessionEntry struct {
	sess      *ar.Session
	completed chan domain.ChallengeCompleted
}

// ChallengeService runs AR and location challenges and forwards completions
// to the progression sink.
type ChallengeService struct {
	levels      *LevelService
	progression *ProgressionService
	verifier    *VerificationService
	sink        ports.CompletionSink
	cfg         ChallengeConfig

	newID   func() string
	newRand func() ar.RandSource
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewChallengeService creates a new ChallengeService. progression may be nil
// (every level open); sink receives exactly one event per finished challenge.
func NewChallengeService(
	levels *LevelService,
	progression *ProgressionService,
	verifier *VerificationService,
	sink ports.CompletionSink,
	cfg ChallengeConfig,
) *ChallengeService {
	if cfg.TargetCount <= 0 {
		cfg.TargetCount = 3
	}
	if cfg.FOV.Horizontal <= 0 || cfg.FOV.Vertical <= 0 {
		cfg.FOV = ar.DefaultFOV
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 15 * time.Minute
	}
	return &ChallengeService{
		levels:      levels,
		progression: progression,
		verifier:    verifier,
		sink:        sink,
		cfg:         cfg,
		newID:       func() string { return uuid.NewString() },
		newRand: func() ar.RandSource {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// WithRand replaces the random source factory used for target placement.
func (s *ChallengeService) WithRand(fn func() ar.RandSource) *ChallengeService {
	s.newRand = fn
	return s
}

// WithIDs replaces the session id generator.
func (s *ChallengeService) WithIDs(fn func() string) *ChallengeService {
	s.newID = fn
	return s
}

// WithClock replaces the clock used for sessions and reaping.
func (s *ChallengeService) WithClock(fn func() time.Time) *ChallengeService {
	s.now = fn
	return s
}

func (s *ChallengeService) checkLevel(ctx context.Context, playerID string, levelID int) error {
	if _, err := s.levels.Get(ctx, levelID); err != nil {
		return err
	}
	if s.progression == nil {
		return nil
	}
	ok, err := s.progression.IsUnlocked(ctx, playerID, levelID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrLevelLocked
	}
	return nil
}

// StartArChallenge acquires the camera, places the targets and registers a
// new session. A camera failure is returned as a *domain.SensorError.
func (s *ChallengeService) StartArChallenge(ctx context.Context, opts StartOptions) (*ar.Session, error) {
	if opts.PlayerID == "" {
		return nil, fmt.Errorf("player id is required")
	}
	if err := s.checkLevel(ctx, opts.PlayerID, opts.LevelID); err != nil {
		return nil, err
	}

	var camera ar.Lease
	if opts.Camera != nil {
		lease, err := opts.Camera.Acquire(ctx)
		if err != nil {
			var se *domain.SensorError
			if !errors.As(err, &se) {
				err = domain.NewSensorError(domain.SensorCamera, domain.ReasonOther, err)
			}
			return nil, err
		}
		camera = lease
	}

	entry := &sessionEntry{completed: make(chan domain.ChallengeCompleted, 1)}
	entry.sess = ar.NewSession(ar.SessionConfig{
		ID:         s.newID(),
		PlayerID:   opts.PlayerID,
		LevelID:    opts.LevelID,
		FOV:        s.cfg.FOV,
		Capability: opts.Capability,
		Camera:     camera,
		Now:        s.now,
	}, func(e domain.ChallengeCompleted) {
		entry.completed <- e
	})

	if err := entry.sess.Spawn(s.cfg.TargetCount, s.newRand()); err != nil {
		entry.sess.Close()
		return nil, fmt.Errorf("spawn targets: %w", err)
	}

	s.mu.Lock()
	s.sessions[entry.sess.ID()] = entry
	s.mu.Unlock()

	metrics.ChallengesStarted.WithLabelValues(string(domain.ChallengeAR)).Inc()
	metrics.ActiveSessions.Inc()
	slog.Info("ar challenge started",
		"session_id", entry.sess.ID(),
		"player_id", opts.PlayerID,
		"level_id", opts.LevelID,
		"capability", opts.Capability.String(),
	)
	return entry.sess, nil
}

func (s *ChallengeService) lookup(id string) (*sessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e, nil
}

func (s *ChallengeService) remove(id string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		metrics.ActiveSessions.Dec()
	}
	return e, ok
}

// Session returns a live session.
func (s *ChallengeService) Session(id string) (*ar.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.sess, nil
}

// Capture taps a target. Only targets currently in view can be captured.
// The capture that finishes the challenge hands the completion to the sink;
// the finished session stays readable until it is reaped.
func (s *ChallengeService) Capture(ctx context.Context, sessionID, targetID string) (ar.CaptureResult, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return ar.CaptureResult{}, err
	}

	res, err := e.sess.Capture(targetID, true)
	switch {
	case errors.Is(err, domain.ErrTargetNotVisible):
		metrics.CapturesTotal.WithLabelValues("not_visible").Inc()
		return res, err
	case err != nil:
		metrics.CapturesTotal.WithLabelValues("rejected").Inc()
		return res, err
	case !res.Captured:
		metrics.CapturesTotal.WithLabelValues("noop").Inc()
		return res, nil
	}
	metrics.CapturesTotal.WithLabelValues("captured").Inc()

	if res.Completed {
		event := <-e.completed
		s.complete(ctx, event)
	}
	return res, nil
}

func (s *ChallengeService) complete(ctx context.Context, event domain.ChallengeCompleted) {
	metrics.ChallengesCompleted.WithLabelValues(string(event.Kind)).Inc()
	slog.Info("challenge completed",
		"session_id", event.SessionID,
		"player_id", event.PlayerID,
		"level_id", event.LevelID,
		"kind", event.Kind,
		"score", event.Score,
	)
	if s.sink == nil {
		return
	}
	// The challenge is over whether or not the sink accepts it.
	if err := s.sink.ChallengeCompleted(context.WithoutCancel(ctx), event); err != nil {
		slog.Error("deliver completion", "session_id", event.SessionID, "error", err)
	}
}

// UpdateOrientation feeds a raw orientation event into a session.
func (s *ChallengeService) UpdateOrientation(ctx context.Context, sessionID string, raw ar.RawOrientation) (bool, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return false, err
	}
	tracker := e.sess.Tracker()
	emitted, suppressed := tracker.Stats()
	changed := e.sess.UpdateOrientation(raw)
	metrics.OrientationUpdates.WithLabelValues(orientationDisposition(tracker, emitted, suppressed)).Inc()
	return changed, nil
}

// orientationDisposition labels the sample pushed since the given tracker
// counters: emitted, suppressed as a duplicate, or ignored because the
// tracker was not accepting events.
func orientationDisposition(t *ar.Tracker, emittedBefore, suppressedBefore uint64) string {
	emitted, suppressed := t.Stats()
	switch {
	case emitted > emittedBefore:
		return "emitted"
	case suppressed > suppressedBefore:
		return "suppressed"
	default:
		return "ignored"
	}
}

// RequestOrientationPermission records the outcome of a user-initiated
// orientation permission prompt.
func (s *ChallengeService) RequestOrientationPermission(ctx context.Context, sessionID string, granted bool) (ar.PermissionState, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return ar.PermissionPrompt, err
	}
	return e.sess.RequestPermission(granted)
}

// View renders the session's current frame.
func (s *ChallengeService) View(ctx context.Context, sessionID string) (ar.Frame, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return ar.Frame{}, err
	}
	return e.sess.Frame(), nil
}

// Abandon closes a session before completion and releases its resources.
func (s *ChallengeService) Abandon(ctx context.Context, sessionID string) error {
	e, ok := s.remove(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	e.sess.Close()
	metrics.ChallengesAbandoned.WithLabelValues("user").Inc()
	slog.Info("ar challenge abandoned", "session_id", sessionID)
	return nil
}

// Reap closes sessions idle for longer than the session TTL and returns how
// many were removed.
func (s *ChallengeService) Reap(now time.Time) int {
	cutoff := now.Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	var expired []*sessionEntry
	for id, e := range s.sessions {
		if e.sess.IdleSince().Before(cutoff) {
			expired = append(expired, e)
			delete(s.sessions, id)
			metrics.ActiveSessions.Dec()
		}
	}
	s.mu.Unlock()

	for _, e := range expired {
		e.sess.Close()
		metrics.ChallengesAbandoned.WithLabelValues("expired").Inc()
	}
	if len(expired) > 0 {
		slog.Info("reaped idle sessions", "count", len(expired))
	}
	return len(expired)
}

// RunReaper calls Reap every interval until ctx is done.
func (s *ChallengeService) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reap(s.now())
		}
	}
}

// CloseAll releases every live session. Used on shutdown.
func (s *ChallengeService) CloseAll() {
	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for id, e := range s.sessions {
		entries = append(entries, e)
		delete(s.sessions, id)
		metrics.ActiveSessions.Dec()
	}
	s.mu.Unlock()
	for _, e := range entries {
		e.sess.Close()
	}
}

// ActiveSessions returns the number of live sessions.
func (s *ChallengeService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CompleteLocationChallenge finishes the geolocation mini-challenge. Any
// successful fix completes it with a score of 1.
func (s *ChallengeService) CompleteLocationChallenge(ctx context.Context, playerID string, levelID int, sensor ports.LocationSensor) (*domain.ChallengeCompleted, error) {
	if playerID == "" {
		return nil, fmt.Errorf("player id is required")
	}
	if err := s.checkLevel(ctx, playerID, levelID); err != nil {
		return nil, err
	}
	metrics.ChallengesStarted.WithLabelValues(string(domain.ChallengeLocation)).Inc()

	if _, err := s.verifier.Locate(ctx, sensor); err != nil {
		return nil, err
	}

	event := domain.ChallengeCompleted{
		SessionID:   s.newID(),
		PlayerID:    playerID,
		LevelID:     levelID,
		Kind:        domain.ChallengeLocation,
		Score:       1,
		CompletedAt: s.now(),
	}
	s.complete(ctx, event)
	return &event, nil
}
