// Package httpapi is the browser-facing surface of the concierge service. It
// wires gin to the widget registry and installs the cross-cutting middleware:
// tracing, correlation ids, redacted access logs, panic recovery, metrics,
// browser profiles, identity, rate limiting, CORS, compression and security
// headers.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/moonpalace/concierge/internal/config"
	"github.com/moonpalace/concierge/internal/http/handlers"
	"github.com/moonpalace/concierge/internal/http/middleware"
)

const maxBodyBytes = 64 << 10

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger
//  4. Recovery (after the logger so panics carry the request id)
//  5. Body size limit
//  6. Metrics
//  7. Browser profile (the rate limiter keys on it)
//  8. Rate limiter
//  9. CORS, compression, security headers
func RegisterRoutes(r *gin.Engine, widgets handlers.Widgets, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.ProfileHeader},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.Use(middleware.Profile(cfg.Security.EnableHSTS))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByProfileOrIP())
	r.Use(rl.Handler())

	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))

	streamPath := joinPath(cfg.APIBasePath, "/widget/stream")
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{streamPath, "/metrics"})))

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Authenticate(cfg.JWTSecret))
	handlers.New(widgets, cfg.CORS.AllowedOrigins).Register(api)
}

// corsConfig allows any origin without credentials when no allowlist is
// configured; with one, the profile cookie is allowed to travel.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.ProfileHeader},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// limitBody caps request bodies at maxBytes; oversized bodies fail to bind.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(prefix, path string) string {
	return strings.TrimRight(prefix, "/") + path
}
