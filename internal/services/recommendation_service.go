package services

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
)

type MentorLister interface {
	ListAll(ctx context.Context) ([]models.MentorProfile, error)
}

// RecommendationService ranks mentors against a mentee's interests, budget
// and the mentor's track record.
type RecommendationService struct {
	mentorRepo MentorLister
}

func NewRecommendationService(mentorRepo MentorLister) *RecommendationService {
	return &RecommendationService{mentorRepo: mentorRepo}
}

func (s *RecommendationService) GetRecommendedMentors(
	ctx context.Context,
	menteeProfile *models.MenteeProfile,
	limit int,
) ([]models.MentorWithScore, error) {
	mentors, err := s.mentorRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	recommended := make([]models.MentorWithScore, 0, len(mentors))
	for _, mentor := range mentors {
		recommended = append(recommended, models.MentorWithScore{
			MentorProfile: mentor,
			MatchScore:    calculateMatchScore(menteeProfile, &mentor),
		})
	}

	sort.SliceStable(recommended, func(i, j int) bool {
		if recommended[i].MatchScore == recommended[j].MatchScore {
			return floatValue(recommended[i].Rating) > floatValue(recommended[j].Rating)
		}
		return recommended[i].MatchScore > recommended[j].MatchScore
	})

	if limit > 0 && len(recommended) > limit {
		recommended = recommended[:limit]
	}

	return recommended, nil
}

func calculateMatchScore(menteeProfile *models.MenteeProfile, mentor *models.MentorProfile) int {
	score := 0
	interestTags := interestAliases(menteeProfile)
	expertise := normalizeValues(mentor.Expertise)

	for _, aliases := range interestTags {
		for _, alias := range aliases {
			if _, ok := expertise[alias]; ok {
				score += 40
				break
			}
		}
	}

	if floatValue(mentor.Rating) > 4.0 {
		score += 20
	}
	if intValue(mentor.ExperienceYears) > 3 {
		score += 15
	}
	if mentor.IsVerified != nil && *mentor.IsVerified {
		score += 10
	}
	if budget := menteeBudget(menteeProfile); budget != nil && mentor.HourlyRate != nil &&
		mentor.HourlyRate.LessThanOrEqual(*budget) {
		score += 15
	}

	return score
}

// interestAliases widens each interest into the expertise tags mentors
// commonly list for it, so "frontend" still matches a mentor tagged "react".
func interestAliases(menteeProfile *models.MenteeProfile) map[string][]string {
	interests := sliceValue(nil)
	if menteeProfile != nil {
		interests = sliceValue(menteeProfile.Interests)
	}

	mapped := make(map[string][]string, len(interests))
	for _, interest := range interests {
		switch normalize(interest) {
		case "frontend", "web_development":
			mapped["frontend"] = []string{"frontend", "web_development", "react", "javascript"}
		case "backend":
			mapped["backend"] = []string{"backend", "api_design", "databases", "go", "python"}
		case "machine_learning", "ai":
			mapped["machine_learning"] = []string{"machine_learning", "ai", "data_science"}
		case "career", "career_growth":
			mapped["career"] = []string{"career", "career_growth", "leadership", "interview_prep"}
		case "devops", "cloud":
			mapped["devops"] = []string{"devops", "cloud", "kubernetes", "aws"}
		default:
			if key := normalize(interest); key != "" {
				mapped[key] = []string{key}
			}
		}
	}

	return mapped
}

func normalizeValues(values *[]string) map[string]struct{} {
	normalized := make(map[string]struct{})
	for _, value := range sliceValue(values) {
		if key := normalize(value); key != "" {
			normalized[key] = struct{}{}
		}
	}
	return normalized
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

func sliceValue(values *[]string) []string {
	if values == nil {
		return nil
	}
	return *values
}

func floatValue(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValue(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func menteeBudget(menteeProfile *models.MenteeProfile) *decimal.Decimal {
	if menteeProfile == nil {
		return nil
	}
	return menteeProfile.MaxHourlyRate
}
