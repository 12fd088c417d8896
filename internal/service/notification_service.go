package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shinyyama/centace-backend/internal/feed"
	"github.com/shinyyama/centace-backend/internal/live"
	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/metrics"
	"github.com/shinyyama/centace-backend/internal/model"
	"github.com/shinyyama/centace-backend/internal/repository"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) bool
}

type NotificationService interface {
	Notify(ctx context.Context, userUID string, t model.NotificationType, title, message string, relatedID *string) (*model.Notification, error)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userUID string) (int64, error)
	MarkRead(ctx context.Context, userUID string, id uint64) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userUID string) ([]model.Notification, error)
	Delete(ctx context.Context, userUID string, id uint64) (bool, error)
	OpenSession(ctx context.Context, userUID string) (*live.Session, error)
	// Wait blocks until in-flight email dispatches finish.
	Wait()
}

type NotificationConfig struct {
	EmailTimeout time.Duration
	Live         live.Config
}

type notificationService struct {
	repo       repository.NotificationRepository
	broker     feed.Broker
	dispatcher Dispatcher
	cfg        NotificationConfig
	inflight   sync.WaitGroup
}

func NewNotificationService(repo repository.NotificationRepository, broker feed.Broker, dispatcher Dispatcher, cfg NotificationConfig) NotificationService {
	if cfg.EmailTimeout <= 0 {
		cfg.EmailTimeout = 30 * time.Second
	}
	return &notificationService{repo: repo, broker: broker, dispatcher: dispatcher, cfg: cfg}
}

// Notify stores a notification, publishes it to the feed and starts the
// email dispatch in the background. Only the store write can fail the call.
func (s *notificationService) Notify(ctx context.Context, userUID string, t model.NotificationType, title, message string, relatedID *string) (*model.Notification, error) {
	if userUID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	n := &model.Notification{
		UserUID:   userUID,
		Type:      t,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(string(t)).Inc()

	s.publish(ctx, feed.KindInsert, *n)
	s.dispatch(ctx, *n)
	return n, nil
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if userUID == "" {
		return nil, nil
	}
	return s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, userUID string) (int64, error) {
	if userUID == "" {
		return 0, nil
	}
	return s.repo.CountUnread(ctx, userUID)
}

// MarkRead returns nil when id does not exist or is not owned by userUID.
func (s *notificationService) MarkRead(ctx context.Context, userUID string, id uint64) (*model.Notification, error) {
	if userUID == "" || id == 0 {
		return nil, nil
	}
	n, err := s.repo.MarkRead(ctx, id, userUID)
	if err != nil || n == nil {
		return nil, err
	}
	s.publish(ctx, feed.KindUpdate, *n)
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) ([]model.Notification, error) {
	if userUID == "" {
		return nil, nil
	}
	changed, err := s.repo.MarkAllRead(ctx, userUID)
	if err != nil {
		return nil, err
	}
	for _, n := range changed {
		s.publish(ctx, feed.KindUpdate, n)
	}
	return changed, nil
}

func (s *notificationService) Delete(ctx context.Context, userUID string, id uint64) (bool, error) {
	if userUID == "" || id == 0 {
		return false, nil
	}
	removed, err := s.repo.Delete(ctx, id, userUID)
	if err != nil || removed == nil {
		return false, err
	}
	s.publish(ctx, feed.KindDelete, *removed)
	return true, nil
}

func (s *notificationService) OpenSession(ctx context.Context, userUID string) (*live.Session, error) {
	return live.Open(ctx, s.cfg.Live, s, s.broker, userUID)
}

func (s *notificationService) Wait() {
	s.inflight.Wait()
}

func (s *notificationService) publish(ctx context.Context, kind feed.Kind, n model.Notification) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, feed.NewEvent(kind, n)); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Uint64("notification_id", n.ID).Msg("notification: feed publish failed")
	}
}

func (s *notificationService) dispatch(ctx context.Context, n model.Notification) {
	if s.dispatcher == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		dctx, cancel := context.WithTimeout(detached, s.cfg.EmailTimeout)
		defer cancel()
		s.dispatcher.Dispatch(dctx, n)
	}()
}
