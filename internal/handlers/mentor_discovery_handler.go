package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/services"
)

type mentorDiscoveryRepository interface {
	List(ctx context.Context, filter repository.MentorListFilter) ([]models.MentorProfile, error)
	Count(ctx context.Context, filter repository.MentorListFilter) (int, error)
	GetByUserID(ctx context.Context, userID int64) (*models.MentorProfile, error)
}

type menteeDiscoveryRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.MenteeProfile, error)
}

type mentorRecommender interface {
	GetRecommendedMentors(ctx context.Context, menteeProfile *models.MenteeProfile, limit int) ([]models.MentorWithScore, error)
}

type MentorDiscoveryHandler struct {
	mentorRepo            mentorDiscoveryRepository
	menteeProfileRepo     menteeDiscoveryRepository
	recommendationService mentorRecommender
}

func NewMentorDiscoveryHandler(
	mentorRepo mentorDiscoveryRepository,
	menteeProfileRepo menteeDiscoveryRepository,
	recommendationService mentorRecommender,
) *MentorDiscoveryHandler {
	return &MentorDiscoveryHandler{
		mentorRepo:            mentorRepo,
		menteeProfileRepo:     menteeProfileRepo,
		recommendationService: recommendationService,
	}
}

func (h *MentorDiscoveryHandler) ListMentors(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := repository.MentorListFilter{
		Expertise: strings.TrimSpace(c.Query("expertise")),
		Offset:    (page - 1) * limit,
		Limit:     limit,
	}

	mentors, err := h.mentorRepo.List(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch mentors"})
	}
	total, err := h.mentorRepo.Count(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch mentors"})
	}

	response := make([]models.MentorListResponse, 0, len(mentors))
	for _, mentor := range mentors {
		response = append(response, buildMentorListResponse(mentor, 0))
	}

	return c.JSON(fiber.Map{
		"mentors":    response,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *MentorDiscoveryHandler) GetRecommendedMentors(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleMentee {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	menteeProfile, err := h.menteeProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch mentee profile"})
	}

	mentors, err := h.recommendationService.GetRecommendedMentors(c.Context(), menteeProfile, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recommended mentors"})
	}

	response := make([]models.MentorListResponse, 0, len(mentors))
	for _, mentor := range mentors {
		response = append(response, buildMentorListResponse(mentor.MentorProfile, mentor.MatchScore))
	}

	return c.JSON(fiber.Map{"mentors": response})
}

func (h *MentorDiscoveryHandler) GetMentorDetail(c *fiber.Ctx) error {
	mentorID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || mentorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor id"})
	}

	mentor, err := h.mentorRepo.GetByUserID(c.Context(), mentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch mentor"})
	}

	return c.JSON(fiber.Map{
		"mentor": buildMentorDetailResponse(*mentor),
	})
}

func buildMentorListResponse(mentor models.MentorProfile, matchScore int) models.MentorListResponse {
	response := models.MentorListResponse{
		ID:              strconv.FormatInt(mentor.UserID, 10),
		FullName:        stringValue(mentor.FullName),
		AvatarURL:       stringValue(mentor.AvatarURL),
		Expertise:       stringSliceValue(mentor.Expertise),
		ExperienceYears: intValueResponse(mentor.ExperienceYears),
		HourlyRate:      decimalValueResponse(mentor.HourlyRate),
		Rating:          floatValueResponse(mentor.Rating),
		TotalSessions:   intValueResponse(mentor.TotalSessions),
	}
	if matchScore > 0 {
		response.MatchScore = matchScore
	}
	return response
}

func buildMentorDetailResponse(mentor models.MentorProfile) models.MentorDetailResponse {
	return models.MentorDetailResponse{
		MentorListResponse: buildMentorListResponse(mentor, 0),
		Bio:                stringValue(mentor.Bio),
		IsVerified:         boolValue(mentor.IsVerified),
		OnboardingComplete: mentor.OnboardingComplete,
	}
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func stringSliceValue(value *[]string) []string {
	if value == nil {
		return []string{}
	}
	return *value
}

func floatValueResponse(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValueResponse(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func boolValue(value *bool) bool {
	if value == nil {
		return false
	}
	return *value
}

func decimalValueResponse(value *decimal.Decimal) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return *value
}

var _ services.MentorLister = (*repository.MentorProfileRepository)(nil)
