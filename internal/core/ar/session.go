package ar

import (
	"sync"
	"time"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// Lease is a scoped resource such as a camera stream. Release must be safe
// to call more than once.
type Lease interface {
	Release()
}

type funcLease struct {
	once sync.Once
	fn   func()
}

// NewLease wraps fn so it runs at most once. A nil fn gives a no-op lease.
func NewLease(fn func()) Lease {
	return &funcLease{fn: fn}
}

func (l *funcLease) Release() {
	l.once.Do(func() {
		if l.fn != nil {
			l.fn()
		}
	})
}

// SessionConfig configures a new AR session.
type SessionConfig struct {
	ID         string
	PlayerID   string
	LevelID    int
	FOV        domain.FOV
	Capability Capability
	Camera     Lease
	Now        func() time.Time
}

// Frame is what the AR view renders at a given instant.
type Frame struct {
	SessionID         string                   `json:"session_id"`
	LevelID           int                      `json:"level_id"`
	Progress          domain.ChallengeProgress `json:"progress"`
	Orientation       *domain.Orientation      `json:"orientation,omitempty"`
	OrientationActive bool                     `json:"orientation_active"`
	Capability        string                   `json:"capability"`
	Permission        string                   `json:"permission"`
	CameraActive      bool                     `json:"camera_active"`
	Targets           []domain.Projection      `json:"targets"`
}

// Session owns everything one AR challenge needs: the orientation tracker,
// the placed targets, the capture state machine and the camera lease. All of
// it is discarded when the session closes.
type Session struct {
	id       string
	playerID string
	levelID  int
	fov      domain.FOV
	now      func() time.Time

	tracker   *Tracker
	challenge *Challenge
	camera    Lease

	mu           sync.Mutex
	spawned      bool
	closed       bool
	cameraActive bool
	lastActive   time.Time
	createdAt    time.Time
	releaseOnce  sync.Once
	completion   func(domain.ChallengeCompleted)
}

// NewSession creates a session. onComplete, if set, receives exactly one
// event once every target has been captured, after resources are released.
func NewSession(cfg SessionConfig, onComplete func(domain.ChallengeCompleted)) *Session {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	fov := cfg.FOV
	if fov.Horizontal <= 0 || fov.Vertical <= 0 {
		fov = DefaultFOV
	}
	camera := cfg.Camera
	hasCamera := camera != nil
	if !hasCamera {
		camera = NewLease(nil)
	}

	t := now()
	return &Session{
		id:           cfg.ID,
		playerID:     cfg.PlayerID,
		levelID:      cfg.LevelID,
		fov:          fov,
		now:          now,
		tracker:      NewTracker(cfg.Capability),
		challenge:    NewChallenge(nil),
		camera:       camera,
		cameraActive: hasCamera,
		createdAt:    t,
		lastActive:   t,
		completion:   onComplete,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// PlayerID returns the owning player.
func (s *Session) PlayerID() string { return s.playerID }

// LevelID returns the level the challenge belongs to.
func (s *Session) LevelID() int { return s.levelID }

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Tracker exposes the session's orientation tracker.
func (s *Session) Tracker() *Tracker { return s.tracker }

// Spawn places count targets. It succeeds once per session; later calls
// return ErrAlreadySpawned and leave the targets untouched.
func (s *Session) Spawn(count int, rng RandSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrChallengeClosed
	}
	if s.spawned {
		return domain.ErrAlreadySpawned
	}
	s.spawned = true

	s.challenge = NewChallenge(PlaceTargets(count, rng))
	s.challenge.OnRelease(s.release)
	s.challenge.OnComplete(func(score int) {
		if s.completion == nil {
			return
		}
		s.completion(domain.ChallengeCompleted{
			SessionID:   s.id,
			PlayerID:    s.playerID,
			LevelID:     s.levelID,
			Kind:        domain.ChallengeAR,
			Score:       score,
			CompletedAt: s.now(),
		})
	})
	return nil
}

// UpdateOrientation feeds a raw sensor event and reports whether it changed
// the tracked orientation.
func (s *Session) UpdateOrientation(raw RawOrientation) bool {
	s.touch()
	return s.tracker.Push(raw)
}

// RequestPermission forwards a user-initiated orientation permission result.
func (s *Session) RequestPermission(granted bool) (PermissionState, error) {
	s.touch()
	return s.tracker.RequestPermission(granted)
}

// Capture captures a target. With requireVisible set, the target must be in
// view under the latest orientation (or the fallback layout).
func (s *Session) Capture(targetID string, requireVisible bool) (CaptureResult, error) {
	s.touch()

	s.mu.Lock()
	closed := s.closed
	challenge := s.challenge
	s.mu.Unlock()

	progress := challenge.Progress()
	if progress.Completed {
		return CaptureResult{TargetID: targetID, Progress: progress}, nil
	}
	if closed {
		return CaptureResult{TargetID: targetID, Progress: progress}, domain.ErrChallengeClosed
	}

	target, ok := challenge.Has(targetID)
	if !ok {
		return CaptureResult{TargetID: targetID, Progress: progress}, nil
	}
	if requireVisible && !Project(target, s.orientation(), s.fov).InView {
		return CaptureResult{TargetID: targetID, Progress: progress}, domain.ErrTargetNotVisible
	}
	return challenge.Capture(targetID), nil
}

// Frame renders the current view: progress plus every target in view.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	challenge := s.challenge
	cameraActive := s.cameraActive
	s.mu.Unlock()

	o := s.orientation()
	return Frame{
		SessionID:         s.id,
		LevelID:           s.levelID,
		Progress:          challenge.Progress(),
		Orientation:       o,
		OrientationActive: s.tracker.Active(),
		Capability:        s.tracker.Capability().String(),
		Permission:        s.tracker.Permission().String(),
		CameraActive:      cameraActive,
		Targets:           Visible(challenge.Targets(), o, s.fov),
	}
}

// Targets returns the targets still waiting to be captured.
func (s *Session) Targets() []domain.VirtualTarget {
	s.mu.Lock()
	challenge := s.challenge
	s.mu.Unlock()
	return challenge.Targets()
}

// Progress returns the capture counters.
func (s *Session) Progress() domain.ChallengeProgress {
	s.mu.Lock()
	challenge := s.challenge
	s.mu.Unlock()
	return challenge.Progress()
}

// Close abandons the session and releases the camera and sensor feed. Safe
// to call from any exit path, any number of times.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.release()
}

// Closed reports whether the session was abandoned or completed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.challenge.Progress().Completed
}

// IdleSince returns the time of the last interaction.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.camera.Release()
		s.tracker.Stop()
		s.mu.Lock()
		s.cameraActive = false
		s.mu.Unlock()
	})
}

func (s *Session) orientation() *domain.Orientation {
	if o, ok := s.tracker.Current(); ok {
		return &o
	}
	return nil
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}
