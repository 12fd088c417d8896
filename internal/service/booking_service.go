package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/repository"
	"gorm.io/gorm"
)

type BookInput struct {
	ProjectID   uint64
	ProjectName string
	VisitDate   time.Time
}

type BookingService interface {
	Book(ctx context.Context, userUID string, in BookInput) (*model.SiteVisit, error)
	Confirm(ctx context.Context, id uint64) (*model.SiteVisit, error)
	Cancel(ctx context.Context, userUID string, id uint64) (*model.SiteVisit, error)
	ListByUser(ctx context.Context, userUID string) ([]model.SiteVisit, error)
}

type bookingService struct {
	repo     repository.SiteVisitRepository
	notifier NotificationService
	now      func() time.Time
}

func NewBookingService(repo repository.SiteVisitRepository, notifier NotificationService) BookingService {
	return &bookingService{repo: repo, notifier: notifier, now: time.Now}
}

func (s *bookingService) Book(ctx context.Context, userUID string, in BookInput) (*model.SiteVisit, error) {
	if userUID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if in.ProjectID == 0 {
		return nil, fmt.Errorf("%w: project is required", ErrInvalidInput)
	}
	if !in.VisitDate.After(s.now()) {
		return nil, fmt.Errorf("%w: visit date must be in the future", ErrInvalidInput)
	}
	v := &model.SiteVisit{
		UserUID:     userUID,
		ProjectID:   in.ProjectID,
		ProjectName: in.ProjectName,
		VisitDate:   in.VisitDate.UTC(),
		Status:      model.SiteVisitStatusPending,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Confirm is an admin action; the visitor gets a visit notification.
func (s *bookingService) Confirm(ctx context.Context, id uint64) (*model.SiteVisit, error) {
	v, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch v.Status {
	case model.SiteVisitStatusConfirmed:
		return v, nil
	case model.SiteVisitStatusCanceled:
		return nil, fmt.Errorf("%w: visit was canceled", ErrInvalidState)
	}
	now := s.now()
	v.Status = model.SiteVisitStatusConfirmed
	v.ConfirmedAt = &now
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	related := strconv.FormatUint(v.ID, 10)
	msg := fmt.Sprintf("Your visit to %s on %s is confirmed.", projectLabel(v.ProjectName, v.ProjectID), v.VisitDate.Format("Jan 2, 2006 15:04 MST"))
	if _, err := s.notifier.Notify(ctx, v.UserUID, model.TypeVisit, "Site Visit Confirmed", msg, &related); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Uint64("site_visit_id", v.ID).Msg("booking: notification failed")
	}
	return v, nil
}

func (s *bookingService) Cancel(ctx context.Context, userUID string, id uint64) (*model.SiteVisit, error) {
	v, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.UserUID != userUID {
		return nil, ErrForbidden
	}
	if v.Status == model.SiteVisitStatusCanceled {
		return v, nil
	}
	v.Status = model.SiteVisitStatusCanceled
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userUID string) ([]model.SiteVisit, error) {
	if userUID == "" {
		return nil, nil
	}
	return s.repo.ListByUser(ctx, userUID)
}

func (s *bookingService) find(ctx context.Context, id uint64) (*model.SiteVisit, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}
