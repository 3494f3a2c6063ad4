package services

import (
	"testing"
	"time"

	"github.com/clinicline/go-sms-backend/internal/domain"
)

func TestCheckAndRecord_NewProfileStartsWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	allowed, p := CheckAndRecord(domain.UserProfile{}, now)
	if !allowed {
		t.Fatalf("first message must be allowed")
	}
	if !p.RollingMessageDate.Equal(now) || p.RollingCountMessagesReceived != 1 {
		t.Fatalf("window not started: %+v", p)
	}
}

func TestCheckAndRecord_IncrementsWithinWindow(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := domain.UserProfile{RollingMessageDate: start, RollingCountMessagesReceived: 5}
	allowed, p := CheckAndRecord(p, start.Add(time.Hour))
	if !allowed || p.RollingCountMessagesReceived != 6 {
		t.Fatalf("expected increment to 6 allowed, got %v %+v", allowed, p)
	}
	if !p.RollingMessageDate.Equal(start) {
		t.Fatalf("window start must not move within the window")
	}
}

func TestCheckAndRecord_WindowResetAfter24h(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := domain.UserProfile{RollingMessageDate: start, RollingCountMessagesReceived: 19}
	now := start.Add(24*time.Hour + time.Minute)
	allowed, p := CheckAndRecord(p, now)
	if !allowed {
		t.Fatalf("message after window expiry must be allowed")
	}
	if p.RollingCountMessagesReceived != 1 || !p.RollingMessageDate.Equal(now) {
		t.Fatalf("window not reset: %+v", p)
	}
}

func TestCheckAndRecord_TwentiethMessageUsesAverage(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	// 19 messages in the window; the 20th arrives fast → average below the
	// floor → denied.
	p := domain.UserProfile{RollingMessageDate: start, RollingCountMessagesReceived: 19}
	allowed, p2 := CheckAndRecord(p, start.Add(2*time.Minute))
	if allowed {
		t.Fatalf("fast 20th message must be denied")
	}
	if p2.RollingCountMessagesReceived != 20 {
		t.Fatalf("denied messages still count: %+v", p2)
	}

	// The same 20th message at the end of the window: average spacing is
	// 24h/20 = 72m, exactly the floor → allowed.
	allowed, _ = CheckAndRecord(p, start.Add(24*time.Hour))
	if !allowed {
		t.Fatalf("slow 20th message must be allowed")
	}
}

func TestCheckAndRecord_TwentyFirstWithinMinuteDenied(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p := domain.UserProfile{RollingMessageDate: start, RollingCountMessagesReceived: 20}
	allowed, p := CheckAndRecord(p, start.Add(time.Minute))
	if allowed {
		t.Fatalf("21st message within a minute must be denied")
	}
	if p.RollingCountMessagesReceived != 21 {
		t.Fatalf("expected count 21, got %d", p.RollingCountMessagesReceived)
	}
}

func TestCheckAndRecord_BurstToleratedWhenLongRunRateLow(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	// 24 messages spread over 23h: average ≈ 57.5m < 72m floor → denied,
	// while 19 over the same span would still be under the cap → allowed.
	p := domain.UserProfile{RollingMessageDate: start, RollingCountMessagesReceived: 23}
	if allowed, _ := CheckAndRecord(p, start.Add(23*time.Hour)); allowed {
		t.Fatalf("24th message at 57.5m average must be denied")
	}
	p.RollingCountMessagesReceived = 18
	if allowed, _ := CheckAndRecord(p, start.Add(23*time.Hour)); !allowed {
		t.Fatalf("19th message is under the cap and must be allowed")
	}
}
