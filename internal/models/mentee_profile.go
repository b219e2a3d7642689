package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenteeProfile struct {
	ID                 int64            `json:"id"`
	UserID             int64            `json:"user_id"`
	FullName           *string          `json:"full_name"`
	AvatarURL          *string          `json:"avatar_url"`
	Bio                *string          `json:"bio"`
	Interests          *[]string        `json:"interests"`
	Goals              *string          `json:"goals"`
	MaxHourlyRate      *decimal.Decimal `json:"max_hourly_rate"`
	OnboardingComplete bool             `json:"onboarding_complete"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}
