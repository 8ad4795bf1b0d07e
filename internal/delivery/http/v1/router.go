package v1

import (
	"context"
	"net/http"

	"portfolio-backend/internal/delivery/http/middleware"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/i18n"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type RouterDeps struct {
	ContactUC   domain.ContactUsecase
	Catalog     *i18n.Catalog
	RateLimiter *middleware.RateLimiter     // nil disables rate limiting
	RedisCheck  func(context.Context) error // nil when Redis is not configured
	CORS        middleware.CORSConfig
	Logger      *zap.Logger
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.CORS)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler(deps.Logger))

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	v1 := r.Group("/v1")

	NewHealthHandler(v1, deps.ContactUC, deps.RedisCheck)

	var contactMW []gin.HandlerFunc
	if deps.RateLimiter != nil {
		contactMW = append(contactMW, deps.RateLimiter.Middleware())
	}
	NewContactHandler(v1, deps.ContactUC, deps.Catalog, contactMW...)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// LocalizedRateLimitMessage renders the 429 message in the caller's locale.
func LocalizedRateLimitMessage(catalog *i18n.Catalog) func(*gin.Context) string {
	return func(c *gin.Context) string {
		locale := catalog.Match(c.Query("locale"), c.GetHeader("Accept-Language"))
		return catalog.T(locale, "errors.tooManyRequests", nil)
	}
}
