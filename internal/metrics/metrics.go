package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexthire_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_users_registered_total",
			Help: "Total accounts created",
		},
		[]string{"role"},
	)

	JobsPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nexthire_jobs_posted_total",
			Help: "Total job offers created",
		},
	)

	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nexthire_applications_submitted_total",
			Help: "Total applications submitted",
		},
	)

	QuizSubmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nexthire_quiz_submissions_total",
			Help: "Total quiz submissions scored",
		},
	)

	InterviewsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nexthire_interviews_scheduled_total",
			Help: "Total interviews scheduled",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_messages_sent_total",
			Help: "Total chat messages persisted",
		},
		[]string{"delivery"}, // "live" or "stored"
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_notifications_sent_total",
			Help: "Total notifications persisted",
		},
		[]string{"type"},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_delivery_failures_total",
			Help: "Live deliveries that failed after persistence",
		},
		[]string{"event"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_emails_sent_total",
			Help: "Outbound emails by template and result",
		},
		[]string{"template", "result"},
	)

	// Realtime metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexthire_ws_active_connections",
			Help: "Currently registered realtime connections",
		},
	)

	SignalsRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_signals_relayed_total",
			Help: "Signaling events relayed to the counterpart",
		},
		[]string{"event"},
	)

	SignalsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_signals_dropped_total",
			Help: "Signaling events dropped for lack of a counterpart",
		},
		[]string{"event"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexthire_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)

	// Infrastructure metrics
	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nexthire_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)

	PostgresLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nexthire_db_latency_seconds",
			Help:    "Database query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
	)

	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexthire_external_call_duration_seconds",
			Help:    "Latency of calls to collaborator services",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "result"},
	)
)
