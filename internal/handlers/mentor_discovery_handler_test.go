package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
)

type stubMentorDiscoveryRepo struct {
	mentors        []models.MentorProfile
	total          int
	listFilter     repository.MentorListFilter
	countFilter    repository.MentorListFilter
	detailMentor   *models.MentorProfile
	detailMentorID int64
	detailErr      error
}

func (s *stubMentorDiscoveryRepo) List(_ context.Context, filter repository.MentorListFilter) ([]models.MentorProfile, error) {
	s.listFilter = filter
	return s.mentors, nil
}

func (s *stubMentorDiscoveryRepo) Count(_ context.Context, filter repository.MentorListFilter) (int, error) {
	s.countFilter = filter
	return s.total, nil
}

func (s *stubMentorDiscoveryRepo) GetByUserID(_ context.Context, userID int64) (*models.MentorProfile, error) {
	s.detailMentorID = userID
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return s.detailMentor, nil
}

type stubMenteeDiscoveryRepo struct {
	profile *models.MenteeProfile
	err     error
}

func (s *stubMenteeDiscoveryRepo) GetByUserID(_ context.Context, _ int64) (*models.MenteeProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

type stubMentorRecommender struct {
	mentors []models.MentorWithScore
	limit   int
}

func (s *stubMentorRecommender) GetRecommendedMentors(_ context.Context, _ *models.MenteeProfile, limit int) ([]models.MentorWithScore, error) {
	s.limit = limit
	return s.mentors, nil
}

func TestListMentorsReturnsPaginationAndFilters(t *testing.T) {
	fullName := "Mentor Ana"
	expertise := []string{"go"}
	rating := 4.7
	experience := 6
	hourlyRate := decimal.NewFromInt(55)

	mentorRepo := &stubMentorDiscoveryRepo{
		mentors: []models.MentorProfile{{
			UserID:             91,
			FullName:           &fullName,
			Expertise:          &expertise,
			Rating:             &rating,
			ExperienceYears:    &experience,
			HourlyRate:         &hourlyRate,
			OnboardingComplete: true,
		}},
		total: 11,
	}
	handler := NewMentorDiscoveryHandler(mentorRepo, &stubMenteeDiscoveryRepo{}, &stubMentorRecommender{})

	app := fiber.New()
	app.Get("/api/v1/mentors", handler.ListMentors)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mentors?expertise=go&page=2&limit=5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Mentors    []models.MentorListResponse `json:"mentors"`
		Pagination models.PaginationMeta       `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if mentorRepo.listFilter.Expertise != "go" || mentorRepo.listFilter.Offset != 5 || mentorRepo.listFilter.Limit != 5 {
		t.Fatalf("unexpected filter: %+v", mentorRepo.listFilter)
	}
	if len(body.Mentors) != 1 || body.Mentors[0].ID != "91" {
		t.Fatalf("unexpected mentors response: %+v", body.Mentors)
	}
	if !body.Mentors[0].HourlyRate.Equal(hourlyRate) {
		t.Fatalf("expected hourly rate 55, got %s", body.Mentors[0].HourlyRate)
	}
	if body.Pagination.Total != 11 || body.Pagination.TotalPages != 3 || body.Pagination.Page != 2 {
		t.Fatalf("unexpected pagination: %+v", body.Pagination)
	}
}

func TestGetRecommendedMentorsReturnsMatchScores(t *testing.T) {
	interests := []string{"backend"}
	menteeRepo := &stubMenteeDiscoveryRepo{profile: &models.MenteeProfile{Interests: &interests}}
	recommender := &stubMentorRecommender{
		mentors: []models.MentorWithScore{
			{
				MentorProfile: models.MentorProfile{
					UserID:             44,
					Expertise:          &interests,
					OnboardingComplete: true,
				},
				MatchScore: 85,
			},
		},
	}
	handler := NewMentorDiscoveryHandler(&stubMentorDiscoveryRepo{}, menteeRepo, recommender)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "mentee")
		c.Locals("user_id", "7")
		return c.Next()
	})
	app.Get("/api/v1/mentors/recommended", handler.GetRecommendedMentors)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mentors/recommended?limit=3", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Mentors []models.MentorListResponse `json:"mentors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if recommender.limit != 3 {
		t.Fatalf("expected limit 3, got %d", recommender.limit)
	}
	if len(body.Mentors) != 1 || body.Mentors[0].MatchScore != 85 {
		t.Fatalf("unexpected recommended mentors: %+v", body.Mentors)
	}
}

func TestGetRecommendedMentorsRejectsMentor(t *testing.T) {
	handler := NewMentorDiscoveryHandler(&stubMentorDiscoveryRepo{}, &stubMenteeDiscoveryRepo{}, &stubMentorRecommender{})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "mentor")
		c.Locals("user_id", "7")
		return c.Next()
	})
	app.Get("/api/v1/mentors/recommended", handler.GetRecommendedMentors)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mentors/recommended", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetMentorDetailReturnsProfile(t *testing.T) {
	fullName := "Mentor Detail"
	bio := "Distributed systems mentor"
	expertise := []string{"go", "kubernetes"}
	verified := true

	mentorRepo := &stubMentorDiscoveryRepo{
		detailMentor: &models.MentorProfile{
			UserID:             55,
			FullName:           &fullName,
			Bio:                &bio,
			Expertise:          &expertise,
			IsVerified:         &verified,
			OnboardingComplete: true,
		},
	}
	handler := NewMentorDiscoveryHandler(mentorRepo, &stubMenteeDiscoveryRepo{}, &stubMentorRecommender{})

	app := fiber.New()
	app.Get("/api/v1/mentors/:id", handler.GetMentorDetail)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mentors/55", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Mentor models.MentorDetailResponse `json:"mentor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if mentorRepo.detailMentorID != 55 {
		t.Fatalf("expected detail lookup for mentor 55, got %d", mentorRepo.detailMentorID)
	}
	if body.Mentor.ID != "55" || body.Mentor.Bio != bio || !body.Mentor.IsVerified {
		t.Fatalf("unexpected mentor detail: %+v", body.Mentor)
	}
	if len(body.Mentor.Expertise) != 2 {
		t.Fatalf("expected 2 expertise entries, got %d", len(body.Mentor.Expertise))
	}
}

func TestGetMentorDetailReturnsNotFound(t *testing.T) {
	handler := NewMentorDiscoveryHandler(&stubMentorDiscoveryRepo{detailErr: pgx.ErrNoRows}, &stubMenteeDiscoveryRepo{}, &stubMentorRecommender{})

	app := fiber.New()
	app.Get("/api/v1/mentors/:id", handler.GetMentorDetail)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mentors/99", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
