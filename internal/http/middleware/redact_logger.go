// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, a structured HTTP logger that scrubs
// obvious PII from request metadata before emitting logs. Inbound SMS webhook
// traffic carries the sender's phone number and often a ZIP code in form
// fields and query strings, and that data must not end up verbatim in logs.
//
// Design goals:
//   - Default-safe: never logs request or response bodies
//   - Redacts phone numbers and 5-digit ZIP codes from query strings and
//     header values
//   - Masks sensitive headers (Authorization, Cookie, Set-Cookie, plus the
//     provider signature header and any custom additions)
//   - Produces structured JSON logs via zerolog
//
// Redaction reduces but does not eliminate the risk of sensitive data leaking
// to logs; upstream services should still avoid putting PII in query strings
// where possible.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra HTTP header names whose values are fully replaced
// with "[REDACTED]". Matching is case-insensitive and merged with the
// built-in sensitive headers.
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger returns a Gin middleware that logs HTTP requests and
// responses with sensitive values scrubbed.
//
// It logs method, route path, query string, status, response size, latency,
// and request headers, applying regex substitution to redact phone numbers
// and ZIP codes from query strings and header values. The built-in masked
// headers are Authorization, Cookie, Set-Cookie, and X-Twilio-Signature.
// Level follows the outcome: info by default, warn for 4xx, error for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	// Compile once. Phone first: a phone number can contain a 5-digit run
	// that the ZIP pattern would otherwise split.
	phoneRE := regexp.MustCompile(`\+?\d{1,3}[ .\-]?\(?\d{2,4}\)?[ .\-]?\d{3,4}[ .\-]?\d{4}`)
	zipRE := regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

	redact := func(s string) string {
		if s == "" {
			return s
		}
		out := phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
		out = zipRE.ReplaceAllString(out, "[REDACTED:zip]")
		return out
	}

	maskHeaders := map[string]struct{}{
		"authorization":      {},
		"cookie":             {},
		"set-cookie":         {},
		"x-twilio-signature": {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := redact(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}

		c.Next()

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
