package ar

import (
	"sync"

	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/pkg/geospatial"
)

// Capability describes how the platform exposes motion sensors. It is
// resolved once when a session starts.
type Capability int

const (
	// AlwaysAvailable platforms deliver orientation events without a prompt.
	AlwaysAvailable Capability = iota
	// NeedsGrant platforms require a permission request from a user gesture.
	NeedsGrant
	// Unsupported platforms have no orientation API at all.
	Unsupported
)

func (c Capability) String() string {
	switch c {
	case AlwaysAvailable:
		return "always_available"
	case NeedsGrant:
		return "needs_grant"
	default:
		return "unsupported"
	}
}

// PermissionState is the orientation permission as seen by the tracker.
type PermissionState int

const (
	PermissionPrompt PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "prompt"
	}
}

// RawOrientation is a device orientation event as reported by the platform.
// Alpha is the compass angle, Beta the screen tilt where 90 means upright
// facing the horizon. Either may be missing.
type RawOrientation struct {
	Alpha *float64 `json:"alpha"`
	Beta  *float64 `json:"beta"`
}

// Canonicalize converts a raw event into an Orientation.
func Canonicalize(raw RawOrientation) domain.Orientation {
	alpha, beta := 0.0, 90.0
	if raw.Alpha != nil {
		alpha = *raw.Alpha
	}
	if raw.Beta != nil {
		beta = *raw.Beta
	}
	return domain.Orientation{
		Heading: geospatial.Normalize360(alpha),
		Pitch:   geospatial.Clamp(90-beta, -90, 90),
	}
}

// Tracker holds the latest canonical orientation for one session and fans it
// out to subscribers. Events are ignored until permission is granted and
// after Stop.
type Tracker struct {
	mu         sync.Mutex
	capability Capability
	permission PermissionState
	current    *domain.Orientation
	subs       map[uint64]func(domain.Orientation)
	nextSub    uint64
	stopped    bool

	emitted    uint64
	suppressed uint64
}

// NewTracker creates a tracker for the given platform capability.
func NewTracker(capability Capability) *Tracker {
	t := &Tracker{
		capability: capability,
		subs:       make(map[uint64]func(domain.Orientation)),
	}
	if capability == AlwaysAvailable {
		t.permission = PermissionGranted
	}
	return t
}

// Capability returns the platform capability the tracker was created with.
func (t *Tracker) Capability() Capability { return t.capability }

// Permission returns the current permission state.
func (t *Tracker) Permission() PermissionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.permission
}

// Active reports whether sensor events are currently accepted.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked()
}

func (t *Tracker) activeLocked() bool {
	return !t.stopped && t.capability != Unsupported && t.permission == PermissionGranted
}

// RequestPermission records the outcome of a user-initiated permission
// prompt. A denial is returned as a classified error and may be retried by
// calling RequestPermission again.
func (t *Tracker) RequestPermission(granted bool) (PermissionState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return t.permission, domain.ErrChallengeClosed
	}
	switch t.capability {
	case Unsupported:
		return t.permission, domain.NewSensorError(domain.SensorOrientation, domain.ReasonUnsupported, nil)
	case AlwaysAvailable:
		return t.permission, nil
	}

	if granted {
		t.permission = PermissionGranted
		return t.permission, nil
	}
	t.permission = PermissionDenied
	return t.permission, domain.NewSensorError(domain.SensorOrientation, domain.ReasonPermissionDenied, nil)
}

// Push feeds one raw sensor event. It returns true when the canonical value
// changed and was delivered to subscribers; identical samples are dropped.
func (t *Tracker) Push(raw RawOrientation) bool {
	o := Canonicalize(raw)

	t.mu.Lock()
	if !t.activeLocked() {
		t.mu.Unlock()
		return false
	}
	if t.current != nil && *t.current == o {
		t.suppressed++
		t.mu.Unlock()
		return false
	}
	t.current = &o
	t.emitted++
	handlers := make([]func(domain.Orientation), 0, len(t.subs))
	for _, fn := range t.subs {
		handlers = append(handlers, fn)
	}
	t.mu.Unlock()

	for _, fn := range handlers {
		fn(o)
	}
	return true
}

// Current returns the latest emitted orientation, if any.
func (t *Tracker) Current() (domain.Orientation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || !t.activeLocked() {
		return domain.Orientation{}, false
	}
	return *t.current, true
}

// Stats returns how many samples were emitted and suppressed.
func (t *Tracker) Stats() (emitted, suppressed uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emitted, t.suppressed
}

// Subscribe registers fn for every emitted orientation. The returned
// subscription must be released when the view goes away.
func (t *Tracker) Subscribe(fn func(domain.Orientation)) *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return &Subscription{}
	}
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn

	return &Subscription{cancel: func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}}
}

// Stop drops every subscriber and rejects further events. Safe to call
// more than once.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.subs = make(map[uint64]func(domain.Orientation))
}

// Subscription is a handle on a tracker listener.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the listener. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}
