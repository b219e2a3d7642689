package handlers

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
)

var validate = validator.New()

type menteeOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.MenteeOnboardingInput) (*models.MenteeProfile, error)
}

type mentorOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.MentorOnboardingInput) (*models.MentorProfile, error)
}

type OnboardingHandler struct {
	menteeProfileRepo menteeOnboardingProfileStore
	mentorProfileRepo mentorOnboardingProfileStore
}

func NewOnboardingHandler(menteeProfileRepo menteeOnboardingProfileStore, mentorProfileRepo mentorOnboardingProfileStore) *OnboardingHandler {
	return &OnboardingHandler{
		menteeProfileRepo: menteeProfileRepo,
		mentorProfileRepo: mentorProfileRepo,
	}
}

type menteeOnboardingRequest struct {
	FullName      string   `json:"full_name" validate:"required"`
	Bio           string   `json:"bio"`
	Interests     []string `json:"interests" validate:"required,min=1,dive,required"`
	Goals         string   `json:"goals"`
	MaxHourlyRate *float64 `json:"max_hourly_rate" validate:"omitempty,gte=0"`
}

type mentorOnboardingRequest struct {
	FullName        string   `json:"full_name" validate:"required"`
	Bio             string   `json:"bio" validate:"required"`
	Expertise       []string `json:"expertise" validate:"required,min=1,dive,required"`
	ExperienceYears int      `json:"experience_years" validate:"gte=0"`
	HourlyRate      float64  `json:"hourly_rate" validate:"gt=0"`
}

func (h *OnboardingHandler) MenteeOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleMentee {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req menteeOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	var maxRate *decimal.Decimal
	if req.MaxHourlyRate != nil {
		rate := decimal.NewFromFloat(*req.MaxHourlyRate)
		maxRate = &rate
	}

	profile, err := h.menteeProfileRepo.UpdateOnboarding(c.Context(), userID, repository.MenteeOnboardingInput{
		FullName:      req.FullName,
		Bio:           req.Bio,
		Interests:     req.Interests,
		Goals:         req.Goals,
		MaxHourlyRate: maxRate,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *OnboardingHandler) MentorOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleMentor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req mentorOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	profile, err := h.mentorProfileRepo.UpdateOnboarding(c.Context(), userID, repository.MentorOnboardingInput{
		FullName:        req.FullName,
		Bio:             req.Bio,
		Expertise:       req.Expertise,
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      decimal.NewFromFloat(req.HourlyRate),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}
