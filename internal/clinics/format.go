package clinics

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clinicline/go-sms-backend/internal/domain"
)

// cityCaser normalizes clinic city names, which the search API sometimes
// returns fully upper- or lower-cased.
var cityCaser = cases.Title(language.AmericanEnglish)

// FormatReply renders the nearest-clinic reply fragment: name and location,
// a normalized US phone number when one is usable, and the clinic URL when
// present.
func FormatReply(c domain.Clinic) string {
	return "The closest clinic to you is " + describe(c)
}

// FormatNextReply renders the pagination follow-up fragment for the cached
// second-best result.
func FormatNextReply(c domain.Clinic) string {
	return "The next closest clinic is " + describe(c)
}

// describe builds the shared "name in city, state. Phone ... More info ..."
// fragment.
func describe(c domain.Clinic) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(c.Name))
	if city := strings.TrimSpace(c.City); city != "" {
		b.WriteString(" in ")
		b.WriteString(cityCaser.String(strings.ToLower(city)))
		if st := strings.TrimSpace(c.State); st != "" {
			b.WriteString(", ")
			b.WriteString(strings.ToUpper(st))
		}
	}
	b.WriteString(".")
	if phone := FormatUSPhone(c.Phone); phone != "" {
		b.WriteString(" Phone: ")
		b.WriteString(phone)
		b.WriteString(".")
	}
	if u := clinicURL(c); u != "" {
		b.WriteString(" More info: ")
		b.WriteString(u)
	}
	return b.String()
}

// clinicURL prefers the API's pre-formatted URL field over the raw one.
func clinicURL(c domain.Clinic) string {
	if u := strings.TrimSpace(c.FormattedURL); u != "" {
		return u
	}
	return strings.TrimSpace(c.URL)
}

// FormatUSPhone normalizes a phone number to the national US format
// (AAA) BBB-CCCC. Ten-digit numbers and eleven-digit numbers with a leading
// country code 1 are formatted; anything else is returned trimmed as-is,
// and an empty or digit-free value yields "".
func FormatUSPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		if d == "" {
			return ""
		}
		return raw
	}
	return fmt.Sprintf("(%s) %s-%s", d[0:3], d[3:6], d[6:10])
}
