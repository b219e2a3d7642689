package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MentorProfile struct {
	ID                 int64            `json:"id"`
	UserID             int64            `json:"user_id"`
	FullName           *string          `json:"full_name"`
	AvatarURL          *string          `json:"avatar_url"`
	Bio                *string          `json:"bio"`
	Expertise          *[]string        `json:"expertise"`
	ExperienceYears    *int             `json:"experience_years"`
	HourlyRate         *decimal.Decimal `json:"hourly_rate"`
	Rating             *float64         `json:"rating"`
	TotalSessions      *int             `json:"total_sessions"`
	IsVerified         *bool            `json:"is_verified"`
	OnboardingComplete bool             `json:"onboarding_complete"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type MentorWithScore struct {
	MentorProfile
	MatchScore int `json:"match_score"`
}

// MentorListResponse is the public card shown in discovery listings. Optional
// profile fields are flattened to zero values so clients never see nulls.
type MentorListResponse struct {
	ID              string          `json:"id"`
	FullName        string          `json:"full_name"`
	AvatarURL       string          `json:"avatar_url"`
	Expertise       []string        `json:"expertise"`
	ExperienceYears int             `json:"experience_years"`
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	Rating          float64         `json:"rating"`
	TotalSessions   int             `json:"total_sessions"`
	MatchScore      int             `json:"match_score,omitempty"`
}

type MentorDetailResponse struct {
	MentorListResponse
	Bio                string `json:"bio"`
	IsVerified         bool   `json:"is_verified"`
	OnboardingComplete bool   `json:"onboarding_complete"`
}
