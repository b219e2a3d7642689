package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SessionTypeVideoCall = "video_call"
	SessionTypeOnsite    = "onsite"
	SessionTypeOther     = "other"
)

const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

// Booking is one mentorship session request. SessionDate ("2006-01-02") and
// SessionTime ("15:04:05") are kept as separate nullable fields; a booking
// with either missing has no session window and never auto-completes.
type Booking struct {
	ID              int64           `json:"id"`
	MenteeID        int64           `json:"mentee_id"`
	MentorID        int64           `json:"mentor_id"`
	SessionType     string          `json:"session_type"`
	SessionDate     *string         `json:"session_date"`
	SessionTime     *string         `json:"session_time"`
	DurationMinutes int             `json:"duration_minutes"`
	Topic           string          `json:"topic"`
	Description     *string         `json:"description"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	IsPaid          bool            `json:"is_paid"`
	Status          string          `json:"status"`
	MeetingLink     *string         `json:"meeting_link"`
	OnsiteAddress   *string         `json:"onsite_address"`
	PaymentIntentID *string         `json:"payment_intent_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type BookingDetail struct {
	Booking
	Payment *Payment `json:"payment,omitempty"`
}

// ValidSessionType reports whether value is one of the supported session types.
func ValidSessionType(value string) bool {
	switch value {
	case SessionTypeVideoCall, SessionTypeOnsite, SessionTypeOther:
		return true
	}
	return false
}
