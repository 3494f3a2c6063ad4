// Package handlers provides the HTTP handler implementations for the
// inbound-SMS webhook and its development companion endpoint.
//
// This file contains the two message entry points:
//
//   - Webhook consumes the provider's form-encoded callback (Body, From,
//     FromCity/FromState/FromZip/FromCountry, MessageSid), deduplicates
//     redelivered callbacks by MessageSid, runs the conversation engine, and
//     answers with TwiML.
//   - DevWebhook consumes a JSON body and returns the reply segments as
//     JSON, so the conversation can be exercised locally without an SMS
//     provider in the loop. It is only mounted when explicitly enabled.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinicline/go-sms-backend/internal/domain"
	"github.com/clinicline/go-sms-backend/internal/http/middleware"
	"github.com/clinicline/go-sms-backend/internal/services"
)

// Deduper marks a provider message ID as seen and reports whether this is
// its first delivery. Used to drop webhook redeliveries.
type Deduper interface {
	MarkSeen(ctx context.Context, sid string) (bool, error)
}

// Handler bundles the message endpoints' dependencies.
type Handler struct {
	Engine *services.Engine
	Dedupe Deduper // optional

	now func() time.Time
}

// New constructs a Handler; dedupe may be nil.
func New(engine *services.Engine, dedupe Deduper) *Handler {
	return &Handler{Engine: engine, Dedupe: dedupe, now: time.Now}
}

// Webhook handles POST /sms, the provider-facing callback.
//
// The contract with the provider is "always 200 with TwiML": a missing
// sender, a replayed delivery, or any downstream failure produces the empty
// <Response/> envelope rather than an error status.
func (h *Handler) Webhook(c *gin.Context) {
	middleware.MarkTwiML(c)

	from := c.PostForm("From")
	if from == "" {
		middleware.LoggerFrom(c).Warn().Msg("webhook without From field")
		twiml(c)
		return
	}

	if sid := c.PostForm("MessageSid"); sid != "" && h.Dedupe != nil {
		first, err := h.Dedupe.MarkSeen(c.Request.Context(), sid)
		switch {
		case err != nil:
			// Dedupe is best-effort; a store outage must not block replies.
			middleware.LoggerFrom(c).Warn().Err(err).Str("sid", sid).Msg("dedupe unavailable")
		case !first:
			middleware.LoggerFrom(c).Info().Str("sid", sid).Msg("duplicate delivery dropped")
			twiml(c)
			return
		}
	}

	msg := domain.InboundMessage{
		Body: c.PostForm("Body"),
		From: from,
		Location: domain.Location{
			City:    c.PostForm("FromCity"),
			State:   c.PostForm("FromState"),
			Zip:     c.PostForm("FromZip"),
			Country: c.PostForm("FromCountry"),
		},
	}

	twiml(c, h.Engine.Handle(c.Request.Context(), msg, h.now())...)
}

// devRequest is the JSON body accepted by DevWebhook.
type devRequest struct {
	Message  string `json:"message" binding:"required"`
	From     string `json:"from" binding:"required"`
	Location struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Zip     string `json:"zip"`
		Country string `json:"country"`
	} `json:"location"`
}

// DevWebhook handles POST /dev/sms. Unlike the provider webhook it validates
// its input and reports errors, since its caller is a developer, not a
// carrier.
func (h *Handler) DevWebhook(c *gin.Context) {
	var req devRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message and from are required")
		return
	}

	msg := domain.InboundMessage{
		Body: req.Message,
		From: req.From,
		Location: domain.Location{
			City:    req.Location.City,
			State:   req.Location.State,
			Zip:     req.Location.Zip,
			Country: req.Location.Country,
		},
	}

	segments := h.Engine.Handle(c.Request.Context(), msg, h.now())
	if segments == nil {
		segments = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"replies": segments})
}
