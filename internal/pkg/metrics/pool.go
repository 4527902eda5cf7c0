package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dbPoolConns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cityhunt",
		Subsystem: "db",
		Name:      "pool_conns",
		Help:      "Database pool connections by state",
	}, []string{"state"})

	dbPoolEmptyAcquires = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cityhunt",
		Subsystem: "db",
		Name:      "pool_empty_acquires",
		Help:      "Acquires that had to wait for a new connection, since start",
	})
)

// PoolStat is the subset of pgxpool.Stat the pool gauges read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	EmptyAcquireCount() int64
}

// UpdateDBPoolMetrics copies pool stats into the pool gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	dbPoolConns.WithLabelValues("acquired").Set(float64(s.AcquiredConns()))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.IdleConns()))
	dbPoolConns.WithLabelValues("total").Set(float64(s.TotalConns()))
	dbPoolEmptyAcquires.Set(float64(s.EmptyAcquireCount()))
}
