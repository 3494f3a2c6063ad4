// Package httpapi wires the HTTP transport (Gin) to the conversation engine,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and edge rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The provider webhook is never blocked by JSON-surface concerns
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/clinicline/go-sms-backend/internal/config"
	"github.com/clinicline/go-sms-backend/internal/http/handlers"
	"github.com/clinicline/go-sms-backend/internal/http/middleware"
	"github.com/clinicline/go-sms-backend/internal/services"
)

// App bundles the runtime dependencies the router needs. PingStore, Dedupe
// and AuditDB are optional; when absent the health report marks the store
// down, webhook redeliveries are not filtered, and the audit endpoint is not
// mounted.
type App struct {
	Engine    *services.Engine
	Dedupe    handlers.Deduper
	PingStore func(ctx context.Context) error
	AuditDB   *gorm.DB
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with phone/ZIP scrubbing
//  4. Recovery: capture panics after logger (TwiML 200 on webhook routes)
//  5. Body size limiter (webhook payloads are tiny)
//  6. Gzip compression (matters for /metrics, harmless elsewhere)
//  7. Metrics
//  8. Rate limiter (per sender/IP)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, app App, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB; an SMS callback is far below this)
	r.Use(limitBody(64 << 10))

	// 6) Compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per sender/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySenderOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured). Only
	// the dev endpoint is browser-facing, but the headers are harmless on
	// the webhook.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:   []string{"X-Request-ID", "Content-Length"},
			MaxAge:          12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORS.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"X-Request-ID", "Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness plus coarse readiness of the two hard dependencies. The
	// service deliberately still answers webhooks when either is down, so
	// this reports rather than gates.
	r.GET("/health", func(c *gin.Context) {
		storeUp := false
		if app.PingStore != nil {
			storeUp = app.PingStore(c.Request.Context()) == nil
		}
		directoryReady := app.Engine != nil && app.Engine.Directory != nil && app.Engine.Directory.Ready()
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"store":     storeUp,
			"directory": directoryReady,
		})
	})

	// Operator-facing audit history, mounted only when the audit database
	// opened.
	if app.AuditDB != nil {
		ah := handlers.NewAudit(app.AuditDB)
		r.GET("/audit/messages/:sender", ah.SenderHistory)
	}

	h := handlers.New(app.Engine, app.Dedupe)

	// Provider webhook
	r.POST("/sms", h.Webhook)

	// Local testing surface, off by default
	if cfg.DevEndpointEnabled {
		r.POST("/dev/sms", h.DevWebhook)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
