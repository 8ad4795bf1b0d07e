package v1

import (
	"context"
	"net/http"
	"time"

	"portfolio-backend/internal/delivery/http/response"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Rate limit backends reported by /ready.
const (
	rateLimitRedis    = "redis"
	rateLimitMemory   = "memory"
	rateLimitDegraded = "degraded"
)

type HealthHandler struct {
	contactUC  domain.ContactUsecase
	redisCheck func(context.Context) error
}

// NewHealthHandler registers the probes. redisCheck is nil when Redis is not configured.
func NewHealthHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, redisCheck func(context.Context) error) {
	handler := &HealthHandler{contactUC: contactUC, redisCheck: redisCheck}

	public.GET("/health", handler.Health)
	public.GET("/ready", handler.Ready)
}

// Health godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, "System operational", nil)
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Pings the submission store. An unreachable Redis only degrades rate limiting
// @Description  to the in-memory counter, so it is reported but does not fail the probe.
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.contactUC.Ready(ctx); err != nil {
		c.Error(apperror.ServiceUnavailable("Submission store unavailable", err))
		return
	}
	rateLimit := rateLimitMemory
	if h.redisCheck != nil {
		rateLimit = rateLimitRedis
		if err := h.redisCheck(ctx); err != nil {
			rateLimit = rateLimitDegraded
		}
	}

	response.Success(c, http.StatusOK, "Ready", gin.H{
		"store":      "ok",
		"rate_limit": rateLimit,
	})
}
