package types

import (
	"time"

	"gorm.io/gorm"
)

// SourceType identifies the inbound channel a message arrived on.
type SourceType string

const (
	SourceEmail SourceType = "EMAIL"
	SourceFix   SourceType = "FIX"
)

// Venue codes for the supported confirmation channels.
const (
	VenueBarclays  = "BARX"
	VenueTullett   = "TPICAP"
	VenueNatWest   = "NATWEST"
	VenueVolbroker = "VOLBROKER"
)

// MessageIn is one raw inbound confirmation message. It is created once by the
// ingest boundary and only ever mutated to record the parse outcome.
type MessageIn struct {
	gorm.Model      `json:"-"`
	MessageID       string     `gorm:"uniqueIndex" json:"message_id"`
	SourceType      SourceType `json:"source_type"`
	SourceVenueCode string     `json:"source_venue_code"`
	FixMsgType      string     `json:"fix_msg_type,omitempty"`
	RawPayload      string     `json:"raw_payload"`
	PayloadHash     string     `gorm:"uniqueIndex" json:"payload_hash"`
	ReceivedUtc     time.Time  `json:"received_utc"`
	SourceTimestamp *time.Time `json:"source_timestamp,omitempty"`
	Parsed          bool       `json:"parsed"`
	ParseError      string     `json:"parse_error,omitempty"`
}
