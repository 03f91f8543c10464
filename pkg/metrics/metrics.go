package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Handled HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ApprovalEvents counts gate decisions: auto, pending, approved, rejected.
	ApprovalEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_events_total",
		Help:      "Approval gate decisions by entity.",
	}, []string{"entity", "decision"})

	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_deletes_total",
		Help:      "Cascade deletions by root entity.",
	}, []string{"root"})

	CascadeRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_deleted_rows_total",
		Help:      "Rows removed or detached by cascade deletions.",
	}, []string{"table"})

	// Backlog is refreshed periodically: pending customers, pending meetings, overdue tasks.
	Backlog = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backlog",
		Help:      "Records waiting for someone, by kind.",
	}, []string{"kind"})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbound_deliveries_total",
		Help:      "Best-effort e-mail and calendar calls by result.",
	}, []string{"capability", "result"})
)

const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultDisabled = "disabled"
)
