// Package domain defines the core data types of the SMS clinic-finder
// backend: the per-sender profile persisted in Redis, the clinic records
// returned by the external locator, the inbound webhook message, and the
// audit-log row mapped with GORM.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// ZipEntry is a single row of the ZIP→state reference dataset. Entries are
// immutable once the directory is loaded.
type ZipEntry struct {
	Zip   string `json:"zip"`
	State string `json:"state"`
}

// Clinic is one facility returned by the clinic-search API. Only the single
// "next closest" result is ever persisted (cached on a UserProfile for the
// one-step pagination follow-up); everything else is ephemeral per request.
//
// The field set mirrors the locator API response.
type Clinic struct {
	ID                     int     `json:"id"`
	Name                   string  `json:"name"`
	Address1               string  `json:"address_1"`
	Address2               string  `json:"address_2"`
	City                   string  `json:"city"`
	State                  string  `json:"state"`
	Zip                    string  `json:"zip"`
	Country                string  `json:"country"`
	Phone                  string  `json:"phone"`
	MilesFromQueryLocation float64 `json:"miles_from_query_location"`
	URL                    string  `json:"url"`
	FormattedURL           string  `json:"formatted_url"`
}

// UserProfile is the per-sender state record, keyed by the sender identifier
// (phone number). It is created on the first message from a sender, mutated
// on every inbound message, and persisted after each one.
//
// Invariants:
//   - ID is stable and unique per sender.
//   - RollingCountMessagesReceived <= CountMessagesReceived.
//   - NextClosest is non-nil only immediately after a multi-result search and
//     is cleared once consumed or superseded.
type UserProfile struct {
	ID string `json:"id"`

	// CountMessagesReceived is the lifetime inbound message count.
	CountMessagesReceived int `json:"count_messages_received"`

	// RollingCountMessagesReceived counts messages since RollingMessageDate.
	RollingCountMessagesReceived int `json:"rolling_count_messages_received"`

	// CountAPIRequests counts calls made to the clinic-search API on behalf
	// of this sender.
	CountAPIRequests int `json:"count_api_requests"`

	FirstMessageDate   time.Time `json:"first_message_date"`
	RollingMessageDate time.Time `json:"rolling_message_date"`
	LastMessageDate    time.Time `json:"last_message_date"`

	// NextClosest caches the second-best search result so an affirmative
	// follow-up reply can return it without a second API call.
	NextClosest *Clinic `json:"next_closest,omitempty"`
}

// Location is the carrier-reported origin of an inbound message. All fields
// are optional and may be empty.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// InboundMessage is one webhook event: the text body, the sender identifier,
// and the carrier-supplied location. Ephemeral, one per request.
type InboundMessage struct {
	Body     string   `json:"message"`
	From     string   `json:"from"`
	Location Location `json:"location"`
}

// MessageLog is the audit row recorded for every handled inbound message.
// Audit writes are best-effort and never block a reply.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Sender: sender identifier; indexed for per-sender queries.
//   - Body: raw inbound text.
//   - Intent: classified intent label (locate, stats, geo, zip, ...).
//   - Segments: number of reply segments sent (0 = silent no-op).
//   - RateLimited: whether the rolling-window gate dropped the message.
type MessageLog struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	Sender      string         `json:"sender"       gorm:"type:varchar(64);not null;index:idx_sender_msgs,priority:1"`
	Body        string         `json:"body"         gorm:"type:text;not null"`
	Intent      string         `json:"intent"       gorm:"type:varchar(16);not null"`
	Segments    int            `json:"segments"     gorm:"not null"`
	RateLimited bool           `json:"rate_limited" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"   gorm:"index:idx_sender_msgs,priority:2"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for MessageLog.
func (MessageLog) TableName() string { return "message_log" }
