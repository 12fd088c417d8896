package service

import (
	"context"
	"fmt"

	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/repository"
)

type PreferenceService interface {
	Get(ctx context.Context, userUID string) (model.EmailPreferences, error)
	Update(ctx context.Context, userUID string, patch model.EmailPreferencePatch) (model.EmailPreferences, error)
}

type preferenceService struct {
	repo repository.PreferenceRepository
}

func NewPreferenceService(repo repository.PreferenceRepository) PreferenceService {
	return &preferenceService{repo: repo}
}

func (s *preferenceService) Get(ctx context.Context, userUID string) (model.EmailPreferences, error) {
	if userUID == "" {
		return model.EmailPreferences{}, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	row, err := s.repo.Get(ctx, userUID)
	if err != nil {
		return model.EmailPreferences{}, err
	}
	return model.ResolveEmailPreferences(row), nil
}

// Update stores only the flags present in patch; the rest keep their
// stored value or default.
func (s *preferenceService) Update(ctx context.Context, userUID string, patch model.EmailPreferencePatch) (model.EmailPreferences, error) {
	if userUID == "" {
		return model.EmailPreferences{}, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	row, err := s.repo.Get(ctx, userUID)
	if err != nil {
		return model.EmailPreferences{}, err
	}
	if row == nil {
		row = &model.EmailPreference{UserUID: userUID}
	}
	patch.Apply(row)
	if err := s.repo.Save(ctx, row); err != nil {
		return model.EmailPreferences{}, err
	}
	return model.ResolveEmailPreferences(row), nil
}
