package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "hunt",
		Name:      "verifications_total",
		Help:      "Location verifications by outcome",
	}, []string{"outcome"})

	VerificationDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cityhunt",
		Subsystem: "hunt",
		Name:      "verification_distance_meters",
		Help:      "Distance between the player and the level target at verification",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000},
	})

	ChallengesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "hunt",
		Name:      "challenges_started_total",
		Help:      "Challenges started by kind",
	}, []string{"kind"})

	ChallengesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "hunt",
		Name:      "challenges_completed_total",
		Help:      "Challenges completed by kind",
	}, []string{"kind"})

	ChallengesAbandoned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "hunt",
		Name:      "challenges_abandoned_total",
		Help:      "AR sessions closed before completion",
	}, []string{"reason"})

	CapturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "hunt",
		Name:      "captures_total",
		Help:      "Capture attempts by result",
	}, []string{"result"})

	LevelsUnlocked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "hunt",
		Name:      "levels_unlocked_total",
		Help:      "Levels unlocked through progression",
	})

	OrientationUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "ar",
		Name:      "orientation_updates_total",
		Help:      "Orientation samples by disposition",
	}, []string{"disposition"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cityhunt",
		Subsystem: "ar",
		Name:      "active_sessions",
		Help:      "AR challenge sessions currently held in memory",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cityhunt",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)
