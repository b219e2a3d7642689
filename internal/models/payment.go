package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Payment is one external payment-processor transaction tied to a booking.
// PaymentIntentID is the processor's opaque key and is globally unique; a
// booking may accumulate several attempts but counts as paid once any of
// them reaches completed.
type Payment struct {
	ID              int64           `json:"id"`
	BookingID       int64           `json:"booking_id"`
	UserID          int64           `json:"user_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
