// Package sms contains the message-parsing rules and the TwiML reply codec
// for the inbound webhook. Parsing is pure: no side effects, no failure
// modes — malformed input simply classifies as "none".
package sms

import (
	"regexp"
	"strings"
)

// Intent is the classification of an inbound message body.
type Intent string

const (
	// IntentLocate is an explicit clinic-search request (LOCATE or FIND).
	IntentLocate Intent = "locate"
	// IntentStats asks for the sender's usage counters.
	IntentStats Intent = "stats"
	// IntentGeo asks to echo the carrier-reported location.
	IntentGeo Intent = "geo"
	// IntentTwo triggers the multi-part reply demo.
	IntentTwo Intent = "two"
	// IntentYes is the pagination confirmation (Y or YES).
	IntentYes Intent = "yes"
	// IntentZip is a bare message containing a five-digit ZIP code.
	IntentZip Intent = "zip"
	// IntentNone matches nothing; the engine stays silent.
	IntentNone Intent = "none"
)

// digitRunRE matches maximal runs of consecutive digits. A ZIP is a run of
// exactly five, so "123456" contains no ZIP while "call 63101 now" does.
var digitRunRE = regexp.MustCompile(`\d+`)

// ExtractZip returns the five-digit ZIP code contained in text, or "" when
// none is present. When the text contains several five-digit runs the LAST
// one wins, matching the original match-then-pop behavior.
func ExtractZip(text string) string {
	var zip string
	for _, run := range digitRunRE.FindAllString(text, -1) {
		if len(run) == 5 {
			zip = run
		}
	}
	return zip
}

// HasZip reports whether text contains a five-digit ZIP code.
func HasZip(text string) bool {
	return ExtractZip(text) != ""
}

// Classify maps a message body to an Intent. Keywords are matched
// case-insensitively after trimming whitespace: STATS, GEO, TWO, Y and YES
// require an exact match, while LOCATE and FIND also match as the leading
// word so "LOCATE 63101" carries its target ZIP. Anything that is not a
// keyword falls through to ZIP detection, then to IntentNone.
func Classify(text string) Intent {
	upper := strings.ToUpper(strings.TrimSpace(text))
	switch upper {
	case "STATS":
		return IntentStats
	case "GEO":
		return IntentGeo
	case "TWO":
		return IntentTwo
	case "Y", "YES":
		return IntentYes
	}
	if first, _, _ := strings.Cut(upper, " "); first == "LOCATE" || first == "FIND" {
		return IntentLocate
	}
	if HasZip(text) {
		return IntentZip
	}
	return IntentNone
}
