// Package handlers provides the HTTP handler implementations for the
// inbound-SMS webhook and its development companion endpoint.
//
// This file defines the response utilities shared by the handlers. The
// webhook speaks TwiML: every reply, including the empty one, is an XML
// <Response> document served with status 200 — SMS providers treat non-2xx
// webhook responses as delivery failures and retry them, so errors are never
// surfaced over the webhook itself. JSON envelopes are reserved for the
// operational surfaces (dev endpoint, route fallbacks).
//
// Example webhook response:
//
//	HTTP/1.1 200 OK
//	Content-Type: text/xml; charset=utf-8
//	<?xml version="1.0" encoding="UTF-8"?>
//	<Response><Message>The closest clinic to you is …</Message></Response>
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicline/go-sms-backend/internal/http/middleware"
	"github.com/clinicline/go-sms-backend/internal/sms"
)

// ErrorResponse is the standard error envelope returned by JSON endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code"`
	// Human-readable message (safe to show to users)
	Message string `json:"message"`
}

// twiml writes the reply segments as a TwiML document with status 200.
// An empty segment list produces the empty <Response/> envelope, which tells
// the provider "handled, nothing to send".
func twiml(c *gin.Context, segments ...string) {
	body, err := sms.NewMessagingResponse(segments...).Render()
	if err != nil {
		// Marshalling a flat struct cannot realistically fail; degrade to
		// the empty envelope rather than a non-2xx.
		middleware.LoggerFrom(c).Error().Err(err).Msg("twiml render failed")
		body, _ = sms.NewMessagingResponse().Render()
	}
	c.Data(http.StatusOK, sms.ContentType, body)
}

// fail aborts the request with a structured JSON error and logs server-side
// errors with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), used by router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }
