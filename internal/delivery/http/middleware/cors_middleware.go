package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig lists who may call the API from a browser.
type CORSConfig struct {
	// AllowedOrigins are exact origins, e.g. https://example.com
	AllowedOrigins []string
	// PreviewSuffix allows preview deployments such as https://portfolio-git-x.vercel.app
	// when the host ends with it. Empty disables previews.
	PreviewSuffix string
	// Production disables the localhost development origins.
	Production bool
}

var devOrigins = map[string]bool{
	"http://localhost:3000": true,
	"http://127.0.0.1:3000": true,
}

// CORSMiddleware adds CORS headers for the portfolio front-end.
//
// SECURITY: Only explicitly listed origins receive CORS headers; disallowed
// preflights are rejected with 403 so the browser blocks the request.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		isAllowed := origin == "" || allowed[origin]
		if !isAllowed && !cfg.Production && devOrigins[origin] {
			isAllowed = true
		}
		if !isAllowed && cfg.PreviewSuffix != "" &&
			strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, cfg.PreviewSuffix) {
			isAllowed = true
		}

		if isAllowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Accept-Language, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
			c.Header("Access-Control-Max-Age", "86400") // 24 hours
		}

		// Vary header to ensure caches differentiate by Origin
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			if isAllowed {
				c.AbortWithStatus(http.StatusNoContent)
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}

		c.Next()
	}
}
