package ar

import (
	"sync"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// CaptureResult reports what a capture call did.
type CaptureResult struct {
	TargetID  string                   `json:"target_id"`
	Captured  bool                     `json:"captured"`  // false for no-ops
	Completed bool                     `json:"completed"` // true only on the capture that finished the challenge
	Progress  domain.ChallengeProgress `json:"progress"`
}

// Challenge is the capture/progress state machine for one AR session.
// Targets move from spawned to captured; the challenge moves from in
// progress to completed once every target is captured, and stays there.
type Challenge struct {
	mu        sync.Mutex
	active    map[string]domain.VirtualTarget
	order     []string
	captured  int
	total     int
	completed bool

	releasers  []func()
	onComplete []func(score int)
}

// NewChallenge starts a challenge over the given targets.
func NewChallenge(targets []domain.VirtualTarget) *Challenge {
	c := &Challenge{
		active: make(map[string]domain.VirtualTarget, len(targets)),
		order:  make([]string, 0, len(targets)),
	}
	for _, t := range targets {
		if _, dup := c.active[t.ID]; dup {
			continue
		}
		c.active[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	c.total = len(c.order)
	return c
}

// OnRelease registers a resource release hook run on completion, before any
// completion listener.
func (c *Challenge) OnRelease(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releasers = append(c.releasers, fn)
}

// OnComplete registers a listener receiving the final capture count.
func (c *Challenge) OnComplete(fn func(score int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = append(c.onComplete, fn)
}

// Capture marks a target as captured. Unknown or already captured ids, and
// any call after completion, are no-ops.
func (c *Challenge) Capture(id string) CaptureResult {
	c.mu.Lock()
	if c.completed {
		res := CaptureResult{TargetID: id, Progress: c.progressLocked()}
		c.mu.Unlock()
		return res
	}
	if _, ok := c.active[id]; !ok {
		res := CaptureResult{TargetID: id, Progress: c.progressLocked()}
		c.mu.Unlock()
		return res
	}

	delete(c.active, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.captured++

	res := CaptureResult{TargetID: id, Captured: true}
	var releasers []func()
	var listeners []func(int)
	if c.captured == c.total {
		c.completed = true
		res.Completed = true
		releasers = c.releasers
		listeners = c.onComplete
		c.releasers, c.onComplete = nil, nil
	}
	res.Progress = c.progressLocked()
	score := c.captured
	c.mu.Unlock()

	for _, fn := range releasers {
		fn()
	}
	for _, fn := range listeners {
		fn(score)
	}
	return res
}

// Has returns the active target with the given id.
func (c *Challenge) Has(id string) (domain.VirtualTarget, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.active[id]
	return t, ok
}

// Targets returns the targets not yet captured, in spawn order.
func (c *Challenge) Targets() []domain.VirtualTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.VirtualTarget, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.active[id])
	}
	return out
}

// Progress returns a snapshot of the capture counters.
func (c *Challenge) Progress() domain.ChallengeProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

func (c *Challenge) progressLocked() domain.ChallengeProgress {
	return domain.ChallengeProgress{Captured: c.captured, Total: c.total, Completed: c.completed}
}
