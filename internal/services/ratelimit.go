package services

import (
	"time"

	"github.com/clinicline/go-sms-backend/internal/domain"
)

// Rolling-window admission policy. The window approximates a cap of
// rollingWindowCap messages per rollingWindow without fixed calendar
// boundaries: short bursts are tolerated while the long-run average stays
// at or above rollingAvgFloor per message.
const (
	// rollingWindow is the accounting period after which counters reset.
	rollingWindow = 24 * time.Hour

	// rollingWindowCap is the message count below which admission is
	// unconditional.
	rollingWindowCap = 20

	// rollingAvgFloor is the minimum acceptable average spacing between
	// messages once the cap is reached: window / cap = 4,320,000 ms.
	rollingAvgFloor = rollingWindow / rollingWindowCap
)

// CheckAndRecord applies the rolling-window policy to a profile for a
// message arriving at now. It is a pure transform: the caller persists the
// returned profile whether or not the message was admitted (denials still
// count — the drop is silent, not an error).
//
// Window roll: when more than rollingWindow has elapsed since
// RollingMessageDate (including the zero value on a brand-new profile) the
// window restarts at now with a count of 1; otherwise the count increments.
//
// Admission: unconditional below rollingWindowCap. At or above the cap the
// message is admitted only when the average spacing since the window start,
// (now - RollingMessageDate) / count, is at least rollingAvgFloor.
func CheckAndRecord(p domain.UserProfile, now time.Time) (allowed bool, updated domain.UserProfile) {
	updated = p
	if now.Sub(updated.RollingMessageDate) > rollingWindow {
		updated.RollingMessageDate = now
		updated.RollingCountMessagesReceived = 1
	} else {
		updated.RollingCountMessagesReceived++
	}

	if updated.RollingCountMessagesReceived < rollingWindowCap {
		return true, updated
	}
	avg := now.Sub(updated.RollingMessageDate) / time.Duration(updated.RollingCountMessagesReceived)
	return avg >= rollingAvgFloor, updated
}
