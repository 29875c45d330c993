package http

import (
	"context"
	"net/http"
	"time"

	"veritas/internal/config"
	"veritas/internal/domain"
	"veritas/internal/infra/metrics"
	"veritas/internal/infra/ratelimit"
	"veritas/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg config.Config
	r   *gin.Engine
	log logrus.FieldLogger

	issueUC    *usecase.IssueCertificate
	verifyUC   *usecase.VerifyCertificate
	byIDUC     *usecase.VerifyByID
	securityUC *usecase.VerifySecurity
	status     *usecase.StatusService

	health   HealthChecker
	metrics  *metrics.Recorder
	gatherer prometheus.Gatherer

	adminAPIKey    string
	maxUploadBytes int64

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

type ServerDeps struct {
	Issue       *usecase.IssueCertificate
	Verify      *usecase.VerifyCertificate
	VerifyByID  *usecase.VerifyByID
	Security    *usecase.VerifySecurity
	Status      *usecase.StatusService
	Health      HealthChecker
	Metrics     *metrics.Recorder
	Gatherer    prometheus.Gatherer
	RateLimiter domain.RateLimiter
	Log         logrus.FieldLogger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	log := deps.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	s := &Server{
		cfg:            cfg,
		r:              r,
		log:            log,
		issueUC:        deps.Issue,
		verifyUC:       deps.Verify,
		byIDUC:         deps.VerifyByID,
		securityUC:     deps.Security,
		status:         deps.Status,
		health:         deps.Health,
		metrics:        deps.Metrics,
		gatherer:       deps.Gatherer,
		adminAPIKey:    cfg.AdminAPIKey,
		maxUploadBytes: int64(cfg.MaxUploadBytes),
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = 10 << 20
	}
	r.Use(s.requestLogger())
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	s.rateLimiter = override
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil)
			if err == nil {
				s.rateLimiter = limiter
			} else {
				s.log.WithError(err).Warn("redis rate limiter unavailable; using in-memory limiter")
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealth)
	if s.gatherer != nil {
		s.r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	s.r.GET("/verify/:certificate_id", s.handleVerifyByID)

	v1 := s.r.Group("/v1")
	{
		v1.POST("/certificates", s.handleIssue)
		v1.GET("/certificates/:certificate_id/verification", s.handleVerifyByID)
		v1.POST("/certificates/:certificate_id", s.handleAdminStatusAction)
	}

	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) handleHealth(c *gin.Context) {
	mode := "no-db"
	if s.health != nil {
		mode = "db"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.log.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mode": mode})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": mode})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()
		if s.metrics != nil {
			s.metrics.ObserveRequest(c.FullPath(), c.Request.Method, status, elapsed)
		}
		entry := s.log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}
