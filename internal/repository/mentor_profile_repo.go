package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
)

const mentorProfileColumns = `id, user_id, full_name, avatar_url, bio, expertise,
	experience_years, hourly_rate, rating, total_sessions, is_verified,
	onboarding_complete, created_at, updated_at`

type MentorProfileRepository struct {
	db DBTX
}

func NewMentorProfileRepository(db DBTX) *MentorProfileRepository {
	return &MentorProfileRepository{db: db}
}

type MentorOnboardingInput struct {
	FullName        string
	Bio             string
	Expertise       []string
	ExperienceYears int
	HourlyRate      decimal.Decimal
}

type UpdateMentorProfileInput struct {
	FullName        *string
	AvatarURL       *string
	Bio             *string
	Expertise       *[]string
	ExperienceYears *int
	HourlyRate      *decimal.Decimal
}

type MentorListFilter struct {
	Expertise string
	Limit     int
	Offset    int
}

func scanMentorProfile(row pgx.Row) (*models.MentorProfile, error) {
	var profile models.MentorProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Expertise,
		&profile.ExperienceYears,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.TotalSessions,
		&profile.IsVerified,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *MentorProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO mentor_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *MentorProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.MentorProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM mentor_profiles WHERE user_id = $1`, mentorProfileColumns)
	return scanMentorProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *MentorProfileRepository) UpdateOnboarding(ctx context.Context, userID int64, req MentorOnboardingInput) (*models.MentorProfile, error) {
	query := fmt.Sprintf(`
		UPDATE mentor_profiles
		SET full_name = $1,
			bio = $2,
			expertise = $3,
			experience_years = $4,
			hourly_rate = $5,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $6
		RETURNING %s
	`, mentorProfileColumns)
	return scanMentorProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Bio,
		req.Expertise,
		req.ExperienceYears,
		req.HourlyRate,
		userID,
	))
}

func (r *MentorProfileRepository) UpdatePartial(ctx context.Context, userID int64, req UpdateMentorProfileInput) (*models.MentorProfile, error) {
	query := fmt.Sprintf(`
		UPDATE mentor_profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			bio = COALESCE($3, bio),
			expertise = COALESCE($4, expertise),
			experience_years = COALESCE($5, experience_years),
			hourly_rate = COALESCE($6, hourly_rate),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING %s
	`, mentorProfileColumns)
	return scanMentorProfile(r.db.QueryRow(ctx, query,
		req.FullName,
		req.AvatarURL,
		req.Bio,
		req.Expertise,
		req.ExperienceYears,
		req.HourlyRate,
		userID,
	))
}

func (r *MentorProfileRepository) SetAvatar(ctx context.Context, userID int64, avatarURL string) error {
	query := `UPDATE mentor_profiles SET avatar_url = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID, avatarURL)
	return err
}

func (r *MentorProfileRepository) ListAll(ctx context.Context) ([]models.MentorProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM mentor_profiles
		WHERE onboarding_complete = TRUE
		ORDER BY rating DESC NULLS LAST, id ASC
	`, mentorProfileColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMentorProfiles(rows)
}

func (r *MentorProfileRepository) List(ctx context.Context, filter MentorListFilter) ([]models.MentorProfile, error) {
	args := []any{}
	whereParts := []string{"onboarding_complete = TRUE"}

	if expertise := strings.TrimSpace(filter.Expertise); expertise != "" {
		args = append(args, expertise)
		whereParts = append(whereParts, fmt.Sprintf("$%d = ANY(expertise)", len(args)))
	}

	args = append(args, filter.Limit)
	limitArg := len(args)
	args = append(args, filter.Offset)
	offsetArg := len(args)

	query := fmt.Sprintf(`
		SELECT %s FROM mentor_profiles
		WHERE %s
		ORDER BY rating DESC NULLS LAST, id ASC
		LIMIT $%d OFFSET $%d
	`, mentorProfileColumns, strings.Join(whereParts, " AND "), limitArg, offsetArg)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMentorProfiles(rows)
}

func (r *MentorProfileRepository) Count(ctx context.Context, filter MentorListFilter) (int, error) {
	args := []any{}
	whereParts := []string{"onboarding_complete = TRUE"}

	if expertise := strings.TrimSpace(filter.Expertise); expertise != "" {
		args = append(args, expertise)
		whereParts = append(whereParts, fmt.Sprintf("$%d = ANY(expertise)", len(args)))
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM mentor_profiles WHERE %s`, strings.Join(whereParts, " AND "))
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func collectMentorProfiles(rows pgx.Rows) ([]models.MentorProfile, error) {
	profiles := make([]models.MentorProfile, 0)
	for rows.Next() {
		profile, err := scanMentorProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}
