package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

// Engagement actions recorded by EngagementTotal.
const (
	ActionPost     = "post"
	ActionLike     = "like"
	ActionUnlike   = "unlike"
	ActionComment  = "comment"
	ActionFollow   = "follow"
	ActionUnfollow = "unfollow"
)

var (
	// EngagementTotal counts successful engagement writes by action.
	EngagementTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aperture_engagement_total",
		Help: "Total number of engagement actions by type",
	}, []string{"action"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aperture_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"op"})

	// WebSocketConnections is the gauge of open notification sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aperture_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketDrops counts notifications dropped because a client's buffer was full.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aperture_websocket_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// DatabaseQueryLatency records GORM statement latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aperture_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// RecordEngagement increments the engagement counter for action.
func RecordEngagement(action string) {
	EngagementTotal.WithLabelValues(action).Inc()
}

const queryStartKey = "aperture:query_start"

// RegisterGormMetrics installs callbacks that observe DatabaseQueryLatency for every statement.
func RegisterGormMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			DatabaseQueryLatency.WithLabelValues(op, tx.Statement.Table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
	}
	for _, h := range hooks {
		if err := h.before("metrics:before_"+h.op, before); err != nil {
			return err
		}
		if err := h.after("metrics:after_"+h.op, after(h.op)); err != nil {
			return err
		}
	}
	return nil
}
