package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"veritas/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	routeCertificatesIssue          = "certificates:issue"
	routeCertificatesVerify         = "certificates:verify"
	routeCertificatesVerifySecurity = "certificates:verify-security"
	routeCertificatesLookup         = "certificates:lookup"
)

func (s *Server) enforceRateLimit(c *gin.Context, routeID string) bool {
	if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
		return true
	}
	key := fmt.Sprintf("client:%s:endpoint:%s", c.ClientIP(), routeID)

	decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.rateLimitRequests, s.rateLimitWindow)
	if err != nil {
		if s.rateLimitFailClosed {
			writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
			return false
		}
		s.log.WithError(err).Warn("rate limiter unavailable; allowing request")
		return true
	}
	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		if s.metrics != nil {
			s.metrics.RateLimited(routeID)
		}
		writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
		return false
	}
	return true
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			c.Header("Retry-After", strconv.FormatInt(decision.RetryAfter(time.Now()), 10))
		}
	}
}
