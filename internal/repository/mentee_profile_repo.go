package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
)

const menteeProfileColumns = `id, user_id, full_name, avatar_url, bio, interests,
	goals, max_hourly_rate, onboarding_complete, created_at, updated_at`

type MenteeProfileRepository struct {
	db DBTX
}

func NewMenteeProfileRepository(db DBTX) *MenteeProfileRepository {
	return &MenteeProfileRepository{db: db}
}

type MenteeOnboardingInput struct {
	FullName      string
	Bio           string
	Interests     []string
	Goals         string
	MaxHourlyRate *decimal.Decimal
}

type UpdateMenteeProfileInput struct {
	FullName      *string
	AvatarURL     *string
	Bio           *string
	Interests     *[]string
	Goals         *string
	MaxHourlyRate *decimal.Decimal
}

func scanMenteeProfile(row pgx.Row) (*models.MenteeProfile, error) {
	var profile models.MenteeProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Interests,
		&profile.Goals,
		&profile.MaxHourlyRate,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *MenteeProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO mentee_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *MenteeProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.MenteeProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM mentee_profiles WHERE user_id = $1`, menteeProfileColumns)
	return scanMenteeProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *MenteeProfileRepository) UpdateOnboarding(ctx context.Context, userID int64, req MenteeOnboardingInput) (*models.MenteeProfile, error) {
	query := fmt.Sprintf(`
		UPDATE mentee_profiles
		SET full_name = $1,
			bio = $2,
			interests = $3,
			goals = $4,
			max_hourly_rate = $5,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $6
		RETURNING %s
	`, menteeProfileColumns)
	return scanMenteeProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Bio,
		req.Interests,
		req.Goals,
		req.MaxHourlyRate,
		userID,
	))
}

func (r *MenteeProfileRepository) UpdatePartial(ctx context.Context, userID int64, req UpdateMenteeProfileInput) (*models.MenteeProfile, error) {
	query := fmt.Sprintf(`
		UPDATE mentee_profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			bio = COALESCE($3, bio),
			interests = COALESCE($4, interests),
			goals = COALESCE($5, goals),
			max_hourly_rate = COALESCE($6, max_hourly_rate),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING %s
	`, menteeProfileColumns)
	return scanMenteeProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.AvatarURL,
		req.Bio,
		req.Interests,
		req.Goals,
		req.MaxHourlyRate,
		userID,
	))
}

func (r *MenteeProfileRepository) SetAvatar(ctx context.Context, userID int64, avatarURL string) error {
	query := `UPDATE mentee_profiles SET avatar_url = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID, avatarURL)
	return err
}
