// Package services – ConversationEngine
//
// This file implements the decision core of the webhook: classify the
// inbound message, gate it on the per-user rolling window and on the
// supported region, optionally consult the clinic locator, and produce an
// ordered list of reply segments. Every downstream failure is absorbed here
// and converted into a safe (possibly empty) reply; the transport layer can
// therefore always answer 200.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicline/go-sms-backend/internal/clinics"
	"github.com/clinicline/go-sms-backend/internal/domain"
	"github.com/clinicline/go-sms-backend/internal/sms"
)

// ProfileStore is the persistence contract the engine needs: an atomic
// read-modify-write over the profile keyed by sender id. A missing key is
// presented to fn as a zero-valued profile.
type ProfileStore interface {
	Update(ctx context.Context, id string, fn func(*domain.UserProfile)) (*domain.UserProfile, error)
}

// RegionDirectory is the ZIP→state lookup consulted by the region gate.
type RegionDirectory interface {
	Ready() bool
	IsInRegion(zip, state string) bool
}

// Locator resolves a ZIP to clinics ordered by ascending distance.
type Locator interface {
	FindNearest(ctx context.Context, zip string) ([]domain.Clinic, error)
}

// AuditLog records handled messages for later inspection. Implementations
// must be safe to call concurrently; errors are logged and swallowed.
type AuditLog interface {
	Record(ctx context.Context, entry domain.MessageLog) error
}

// Engine orchestrates one conversation turn:
// Start → Classify → RateGate → RegionGate → Locate → Reply.
// It is stateless between invocations except through the ProfileStore.
type Engine struct {
	Store     ProfileStore
	Directory RegionDirectory
	Locator   Locator
	Audit     AuditLog // optional

	// RegionCode is the two-letter code of the supported service area,
	// RegionName its display name used in replies (e.g. "MO"/"Missouri").
	RegionCode string
	RegionName string
}

// Reply texts. The clinic-finder greeting and the TWO demo segments are
// carried over verbatim from the production message catalog.
const (
	msgLocatePrompt = "We can do that! This is The Right Time clinic finder. Please send your zip code to find a clinic near you."
	msgLocatorDown  = "Sorry, we are unable to search for clinics right now. Please try again later."
	msgStatsDown    = "Sorry, message stats are not being tracked right now."
	msgNextOffer    = "Would you like the next closest clinic? Reply Y."
	msgTwoFirst     = "I can do that!"
	msgTwoSecond    = "This is the second message part."
)

// Handle processes one inbound message arriving at now and returns the
// ordered reply segments (empty slice means no reply is sent).
func (e *Engine) Handle(ctx context.Context, msg domain.InboundMessage, now time.Time) []string {
	tr := otel.Tracer("services/Engine")
	ctx, span := tr.Start(ctx, "Handle",
		trace.WithAttributes(attribute.String("sms.from", msg.From)),
	)
	defer span.End()

	intent := sms.Classify(msg.Body)
	span.SetAttributes(attribute.String("sms.intent", string(intent)))

	// Load-or-create the profile and apply the rolling-window gate in a
	// single atomic update, so the counters are persisted even when the
	// message is dropped.
	allowed := true
	storeOK := e.Store != nil
	var prof *domain.UserProfile
	if storeOK {
		p, err := e.Store.Update(ctx, msg.From, func(p *domain.UserProfile) {
			if p.ID == "" {
				p.ID = msg.From
				p.FirstMessageDate = now
			}
			p.CountMessagesReceived++
			p.LastMessageDate = now
			ok, updated := CheckAndRecord(*p, now)
			allowed = ok
			*p = updated
		})
		if err != nil {
			log.Warn().Err(fmt.Errorf("%w: %v", ErrStoreUnavailable, err)).
				Str("from", msg.From).Msg("profile store degraded")
			storeOK = false
			allowed = true
		} else {
			prof = p
		}
	}

	rateLimited := storeOK && !allowed
	var segments []string
	if rateLimited {
		// Deliberate silent drop: counters updated, no reply sent.
		rateLimitedTotal.Inc()
	} else {
		segments = e.dispatch(ctx, intent, msg, prof, storeOK)
	}

	repliesTotal.WithLabelValues(string(intent)).Inc()
	e.audit(ctx, msg, intent, len(segments), rateLimited)
	return segments
}

// dispatch runs the intent branch and returns the reply segments.
func (e *Engine) dispatch(ctx context.Context, intent sms.Intent, msg domain.InboundMessage, prof *domain.UserProfile, storeOK bool) []string {
	switch intent {
	case sms.IntentLocate:
		zip := sms.ExtractZip(msg.Body)
		if zip == "" {
			zip = msg.Location.Zip
		}
		if zip == "" {
			return []string{msgLocatePrompt}
		}
		return e.locate(ctx, msg.From, zip, false, storeOK)

	case sms.IntentZip:
		return e.locate(ctx, msg.From, sms.ExtractZip(msg.Body), true, storeOK)

	case sms.IntentStats:
		if !storeOK || prof == nil {
			return []string{msgStatsDown}
		}
		return []string{fmt.Sprintf("You have sent %d messages to this number.", prof.CountMessagesReceived)}

	case sms.IntentGeo:
		loc := msg.Location
		return []string{fmt.Sprintf("Your location is %s, %s, %s, %s.", loc.City, loc.State, loc.Zip, loc.Country)}

	case sms.IntentTwo:
		return []string{msgTwoFirst, msgTwoSecond}

	case sms.IntentYes:
		return e.nextClosest(ctx, msg.From, prof, storeOK)
	}
	return nil
}

// locate runs the region gate and the clinic search for a target ZIP.
// bareZip selects the phrasing used when the message was a plain ZIP code
// rather than an explicit LOCATE/FIND request.
func (e *Engine) locate(ctx context.Context, from, zip string, bareZip bool, storeOK bool) []string {
	if e.Directory == nil || !e.Directory.Ready() {
		// Fail closed: no region decision without the reference dataset.
		log.Warn().Err(ErrDirectoryNotReady).Str("zip", zip).Msg("locate refused")
		locatorLookups.WithLabelValues("directory_not_ready").Inc()
		return []string{msgLocatorDown}
	}
	if !e.Directory.IsInRegion(zip, e.RegionCode) {
		if bareZip {
			return []string{fmt.Sprintf("That is not a valid %s ZIP code.", e.RegionName)}
		}
		return []string{fmt.Sprintf("Sorry, we can only find clinics in %s right now. Please send a %s zip code.", e.RegionName, e.RegionName)}
	}

	results, err := e.Locator.FindNearest(ctx, zip)

	// The lookup counts against the sender whether or not it succeeded,
	// and any previously cached "next closest" result is superseded.
	var next *domain.Clinic
	if err == nil && len(results) >= 2 {
		second := results[1]
		next = &second
	}
	if storeOK {
		if _, uerr := e.Store.Update(ctx, from, func(p *domain.UserProfile) {
			p.CountAPIRequests++
			p.NextClosest = next
		}); uerr != nil {
			log.Warn().Err(uerr).Str("from", from).Msg("profile update failed after lookup")
			storeOK = false
		}
	}

	if err != nil {
		log.Error().Err(fmt.Errorf("%w: %v", ErrLocatorUnavailable, err)).
			Str("zip", zip).Msg("clinic lookup failed")
		locatorLookups.WithLabelValues("error").Inc()
		return []string{msgLocatorDown}
	}
	if len(results) == 0 {
		locatorLookups.WithLabelValues("empty").Inc()
		return nil
	}
	locatorLookups.WithLabelValues("ok").Inc()

	segments := []string{clinics.FormatReply(results[0])}
	if next != nil && storeOK {
		// Pagination needs the cached result, so the offer is only made
		// when the cache write went through.
		segments = append(segments, msgNextOffer)
	}
	return segments
}

// nextClosest consumes the cached pagination result, if any.
func (e *Engine) nextClosest(ctx context.Context, from string, prof *domain.UserProfile, storeOK bool) []string {
	if !storeOK || prof == nil || prof.NextClosest == nil {
		return nil
	}
	cached := *prof.NextClosest
	if _, err := e.Store.Update(ctx, from, func(p *domain.UserProfile) {
		p.NextClosest = nil
	}); err != nil {
		log.Warn().Err(err).Str("from", from).Msg("failed to clear pagination cache")
	}
	return []string{clinics.FormatNextReply(cached)}
}

// audit records the handled message; failures are logged and swallowed.
func (e *Engine) audit(ctx context.Context, msg domain.InboundMessage, intent sms.Intent, segments int, rateLimited bool) {
	if e.Audit == nil {
		return
	}
	entry := domain.MessageLog{
		Sender:      msg.From,
		Body:        msg.Body,
		Intent:      string(intent),
		Segments:    segments,
		RateLimited: rateLimited,
	}
	if err := e.Audit.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("from", msg.From).Msg("audit write failed")
	}
}
