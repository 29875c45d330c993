package metrics

import (
	"strconv"
	"time"

	"veritas/internal/domain"
	"veritas/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "veritas"

// Recorder owns every collector the service exports. Collectors are
// registered on the registry passed in, never on the global default.
type Recorder struct {
	issued        *prometheus.CounterVec
	renderFailed  prometheus.Counter
	verifications *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	rateLimited   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		issued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "certificates",
			Name:      "issued_total",
			Help:      "Certificates issued, by template.",
		}, []string{"template"}),
		renderFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "certificates",
			Name:      "render_failures_total",
			Help:      "Certificates whose record was stored but whose document failed to render.",
		}),
		verifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verifications",
			Name:      "total",
			Help:      "Completed verifications, by path and reason.",
		}, []string{"kind", "reason"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method", "status"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by route.",
		}, []string{"route"}),
	}
}

func (r *Recorder) CertificateIssued(templateID string) {
	r.issued.WithLabelValues(templateID).Inc()
}

func (r *Recorder) RenderFailed() {
	r.renderFailed.Inc()
}

func (r *Recorder) VerificationCompleted(kind string, reason domain.VerificationReason) {
	r.verifications.WithLabelValues(kind, string(reason)).Inc()
}

func (r *Recorder) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (r *Recorder) RateLimited(route string) {
	r.rateLimited.WithLabelValues(route).Inc()
}

var _ usecase.Metrics = (*Recorder)(nil)
