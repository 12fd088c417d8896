package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/repository"
	"gorm.io/gorm"
)

type ProfileService interface {
	Get(ctx context.Context, userUID string) (*model.Profile, error)
	// Upsert creates or updates the caller's profile. The first creation
	// sends the welcome notification.
	Upsert(ctx context.Context, userUID, email, fullName string) (*model.Profile, bool, error)
	IsAdmin(ctx context.Context, userUID string) bool
}

const (
	welcomeTitle   = "Welcome to Centace"
	welcomeMessage = "Your account is ready. Browse open projects and make your first investment."
)

type profileService struct {
	repo     repository.ProfileRepository
	notifier NotificationService
}

func NewProfileService(repo repository.ProfileRepository, notifier NotificationService) ProfileService {
	return &profileService{repo: repo, notifier: notifier}
}

func (s *profileService) Get(ctx context.Context, userUID string) (*model.Profile, error) {
	p, err := s.repo.Get(ctx, userUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *profileService) Upsert(ctx context.Context, userUID, email, fullName string) (*model.Profile, bool, error) {
	if userUID == "" {
		return nil, false, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	p := &model.Profile{
		UserUID:  userUID,
		Email:    strings.TrimSpace(email),
		FullName: strings.TrimSpace(fullName),
	}
	created, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, false, err
	}
	if created && s.notifier != nil {
		if _, err := s.notifier.Notify(ctx, userUID, model.TypeWelcome, welcomeTitle, welcomeMessage, nil); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("profile: welcome notification failed")
		}
	}
	return p, created, nil
}

func (s *profileService) IsAdmin(ctx context.Context, userUID string) bool {
	if userUID == "" {
		return false
	}
	p, err := s.repo.Get(ctx, userUID)
	if err != nil {
		return false
	}
	return p.Role == model.RoleAdmin
}
