package domain

import (
	"time"
)

// Level is one stop on the hunt map, gated by a geofence.
type Level struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Target       GeoPoint  `json:"target"`
	RadiusMeters float64   `json:"radius_meters"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Geofence returns the level's verification region.
func (l Level) Geofence() Geofence {
	return Geofence{Center: l.Target, RadiusMeters: l.RadiusMeters}
}

// Orientation is the canonical device pose: compass heading and tilt.
// Heading is in [0, 360) clockwise from north. Pitch is in [-90, 90] where 0
// is the horizon and -90 is straight down.
type Orientation struct {
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
}

// FOV is the angular size of the camera view in degrees.
type FOV struct {
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
}

// VirtualTarget is an AR object placed around the player. Bearing and
// elevation are fixed at creation.
type VirtualTarget struct {
	ID        string  `json:"id"`
	Index     int     `json:"index"` // 1-based spawn order
	Kind      string  `json:"kind"`
	Label     string  `json:"label"`
	Icon      string  `json:"icon"`
	Bearing   float64 `json:"bearing"`
	Elevation float64 `json:"elevation"`
}

// Projection is where a target lands on the normalized [0,100] viewport.
type Projection struct {
	TargetID string  `json:"target_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	InView   bool    `json:"in_view"`
	Fallback bool    `json:"fallback,omitempty"` // static layout, no live orientation
}

// ChallengeProgress tracks captures within one challenge session.
type ChallengeProgress struct {
	Captured  int  `json:"captured"`
	Total     int  `json:"total"`
	Completed bool `json:"completed"`
}

// ChallengeKind names a mini-challenge type.
type ChallengeKind string

const (
	ChallengeAR       ChallengeKind = "ar"
	ChallengeLocation ChallengeKind = "location"
)

// ChallengeCompleted is emitted once per finished challenge.
type ChallengeCompleted struct {
	SessionID   string        `json:"session_id"`
	PlayerID    string        `json:"player_id"`
	LevelID     int           `json:"level_id"`
	Kind        ChallengeKind `json:"kind"`
	Score       int           `json:"score"`
	CompletedAt time.Time     `json:"completed_at"`
}

// LevelUnlocked is emitted when a player gains access to a new level.
type LevelUnlocked struct {
	PlayerID   string    `json:"player_id"`
	LevelID    int       `json:"level_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// PlayerProgress lists the levels a player can enter.
type PlayerProgress struct {
	PlayerID string `json:"player_id"`
	Unlocked []int  `json:"unlocked"`
	Total    int    `json:"total_levels"`
}

// Has reports whether level is unlocked.
func (p PlayerProgress) Has(level int) bool {
	for _, l := range p.Unlocked {
		if l == level {
			return true
		}
	}
	return false
}

// VerificationResult is the outcome of a geofence check. A negative result is
// not an error: Reason explains why and Retryable says whether a fresh
// request can help.
type VerificationResult struct {
	LevelID        int           `json:"level_id"`
	Verified       bool          `json:"verified"`
	Reason         FailureReason `json:"reason,omitempty"`
	Message        string        `json:"message"`
	Retryable      bool          `json:"retryable"`
	DistanceMeters *float64      `json:"distance_meters,omitempty"`
	RadiusMeters   float64       `json:"radius_meters"`
	Position       *GeoPoint     `json:"position,omitempty"`
	CheckedAt      time.Time     `json:"checked_at"`
}
