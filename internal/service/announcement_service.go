package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/repository"
)

const announceConcurrency = 8

type AnnounceInput struct {
	Type      model.NotificationType
	Title     string
	Message   string
	RelatedID *string
}

type AnnounceResult struct {
	Recipients int `json:"recipients"`
	Delivered  int `json:"delivered"`
	Failed     int `json:"failed"`
}

type AnnouncementService interface {
	Announce(ctx context.Context, in AnnounceInput) (AnnounceResult, error)
}

type announcementService struct {
	profiles repository.ProfileRepository
	notifier NotificationService
}

func NewAnnouncementService(profiles repository.ProfileRepository, notifier NotificationService) AnnouncementService {
	return &announcementService{profiles: profiles, notifier: notifier}
}

// Announce notifies every profile. Per-user failures are counted and
// logged; only failing to list recipients aborts.
func (s *announcementService) Announce(ctx context.Context, in AnnounceInput) (AnnounceResult, error) {
	if in.Type != model.TypeNew && in.Type != model.TypeUpdate {
		return AnnounceResult{}, fmt.Errorf("%w: announcements must be %q or %q", ErrInvalidType, model.TypeNew, model.TypeUpdate)
	}
	if in.Title == "" {
		return AnnounceResult{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	uids, err := s.profiles.ListUIDs(ctx)
	if err != nil {
		return AnnounceResult{}, err
	}

	var delivered, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(announceConcurrency)
	for _, uid := range uids {
		g.Go(func() error {
			if _, err := s.notifier.Notify(ctx, uid, in.Type, in.Title, in.Message, in.RelatedID); err != nil {
				failed.Add(1)
				logging.Ctx(ctx).Warn().Err(err).Str("recipient", uid).Msg("announcement: notify failed")
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := AnnounceResult{Recipients: len(uids), Delivered: int(delivered.Load()), Failed: int(failed.Load())}
	logging.Ctx(ctx).Info().Int("recipients", res.Recipients).Int("failed", res.Failed).Str("type", string(in.Type)).Msg("announcement: sent")
	return res, nil
}
