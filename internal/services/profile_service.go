package services

import (
	"context"

	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
)

type MenteeProfileUpdater interface {
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateMenteeProfileInput) (*models.MenteeProfile, error)
}

type MentorProfileUpdater interface {
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateMentorProfileInput) (*models.MentorProfile, error)
}

type ProfileService struct {
	menteeProfileRepo MenteeProfileUpdater
	mentorProfileRepo MentorProfileUpdater
}

func NewProfileService(menteeProfileRepo MenteeProfileUpdater, mentorProfileRepo MentorProfileUpdater) *ProfileService {
	return &ProfileService{
		menteeProfileRepo: menteeProfileRepo,
		mentorProfileRepo: mentorProfileRepo,
	}
}

func (s *ProfileService) UpdateMenteeProfile(ctx context.Context, userID int64, req repository.UpdateMenteeProfileInput) (*models.MenteeProfile, error) {
	return s.menteeProfileRepo.UpdatePartial(ctx, userID, req)
}

func (s *ProfileService) UpdateMentorProfile(ctx context.Context, userID int64, req repository.UpdateMentorProfileInput) (*models.MentorProfile, error) {
	return s.mentorProfileRepo.UpdatePartial(ctx, userID, req)
}
