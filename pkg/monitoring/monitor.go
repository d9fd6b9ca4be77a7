package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	QuizSessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techlift_quiz_sessions_started_total",
			Help: "Quiz sessions started",
		},
		[]string{"quiz"},
	)

	QuizSessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techlift_quiz_sessions_finished_total",
			Help: "Quiz sessions that reached a terminal state",
		},
		[]string{"quiz", "outcome"},
	)

	QuizScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "techlift_quiz_score_percent",
			Help:    "Score of finished quiz attempts",
			Buckets: []float64{20, 40, 60, 70, 80, 90, 100},
		},
		[]string{"quiz"},
	)

	CompletionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techlift_completion_events_total",
			Help: "Lesson and course completion transitions",
		},
		[]string{"kind"},
	)

	SyncFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techlift_progress_sync_failures_total",
			Help: "Progress store calls that failed",
		},
		[]string{"op"},
	)

	EventSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "techlift_event_subscribers",
			Help: "Open progress event streams on this instance",
		},
	)
)

// Collectors returns every metric owned by the service.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RequestCounter,
		RequestDuration,
		QuizSessionsStarted,
		QuizSessionsFinished,
		QuizScore,
		CompletionEvents,
		SyncFailures,
		EventSubscribers,
	}
}

func Init() {
	prometheus.MustRegister(Collectors()...)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
