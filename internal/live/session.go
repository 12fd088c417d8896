// Package live keeps one user's notification view in sync with the change
// feed for the lifetime of a connection.
package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shinyyama/centace-backend/internal/feed"
	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/metrics"
	"github.com/shinyyama/centace-backend/internal/model"
)

var (
	ErrUnauthenticated = errors.New("live: no authenticated user")
	ErrActionFailed    = errors.New("live: action failed")
	ErrClosed          = errors.New("live: session closed")
)

// Store is the persistence side of a session. Every call is scoped to the
// given user.
type Store interface {
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userUID string, id uint64) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userUID string) ([]model.Notification, error)
	Delete(ctx context.Context, userUID string, id uint64) (bool, error)
	Notify(ctx context.Context, userUID string, t model.NotificationType, title, message string, relatedID *string) (*model.Notification, error)
}

type Config struct {
	ConnectTimeout time.Duration
	FetchLimit     int
	AlertBuffer    int
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = 50
	}
	if c.AlertBuffer <= 0 {
		c.AlertBuffer = 16
	}
	return c
}

// Alert is the transient toast raised for a newly inserted notification.
type Alert struct {
	NotificationID uint64                 `json:"id"`
	Type           model.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
}

type View struct {
	Items       []model.Notification `json:"items"`
	UnreadCount int                  `json:"unreadCount"`
	Status      Status               `json:"status"`
}

// Session owns one feed subscription and the view-state it feeds. A single
// goroutine applies feed events; user actions persist first and touch the
// local state only on success.
type Session struct {
	cfg     Config
	store   Store
	sub     *feed.Subscription
	userUID string

	mu      sync.Mutex
	state   *ViewState
	status  Status
	loadErr error

	alerts  chan Alert
	changes chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Open subscribes before the initial fetch so nothing written in between is
// lost; inserts are applied as upserts, which absorbs the overlap.
func Open(ctx context.Context, cfg Config, store Store, broker feed.Broker, userUID string) (*Session, error) {
	if userUID == "" {
		return nil, ErrUnauthenticated
	}
	cfg = cfg.withDefaults()

	sub, err := broker.Subscribe(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("live: subscribe: %w", err)
	}

	s := &Session{
		cfg:     cfg,
		store:   store,
		sub:     sub,
		userUID: userUID,
		state:   NewViewState(),
		status:  StatusConnecting,
		alerts:  make(chan Alert, cfg.AlertBuffer),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	metrics.LiveSessionsActive.Inc()

	list, err := store.List(ctx, userUID, false, cfg.FetchLimit)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("uid", userUID).Msg("live: initial fetch failed")
		s.loadErr = err
	} else {
		s.state.Seed(list)
	}

	go s.run()
	return s, nil
}

func (s *Session) UserUID() string { return s.userUID }

// Alerts yields one Alert per insert event. Alerts are dropped when nobody reads them.
func (s *Session) Alerts() <-chan Alert { return s.alerts }

// Changes receives a value whenever the view or status changed. Signals coalesce.
func (s *Session) Changes() <-chan struct{} { return s.changes }

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UnreadCount()
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{Items: s.state.Snapshot(), UnreadCount: s.state.UnreadCount(), Status: s.status}
}

func (s *Session) MarkAsRead(ctx context.Context, id uint64) error {
	if s.isClosed() {
		return ErrClosed
	}
	n, err := s.store.MarkRead(ctx, s.userUID, id)
	if err != nil {
		return fmt.Errorf("%w: mark %d read: %w", ErrActionFailed, id, err)
	}
	if n == nil {
		return nil
	}
	s.mutate(func(v *ViewState) bool {
		if v.Patch(*n) {
			return true
		}
		return v.SetRead(id)
	})
	return nil
}

func (s *Session) MarkAllAsRead(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	if _, err := s.store.MarkAllRead(ctx, s.userUID); err != nil {
		return fmt.Errorf("%w: mark all read: %w", ErrActionFailed, err)
	}
	s.mutate(func(v *ViewState) bool {
		v.SetAllRead()
		return true
	})
	return nil
}

func (s *Session) DeleteOne(ctx context.Context, id uint64) error {
	if s.isClosed() {
		return ErrClosed
	}
	if _, err := s.store.Delete(ctx, s.userUID, id); err != nil {
		return fmt.Errorf("%w: delete %d: %w", ErrActionFailed, id, err)
	}
	s.mutate(func(v *ViewState) bool { return v.Remove(id) })
	return nil
}

// AddNotification creates a notification for the session's user. The new
// row reaches the view through the feed, like any other insert.
func (s *Session) AddNotification(ctx context.Context, t model.NotificationType, title, message string, relatedID *string) (*model.Notification, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	n, err := s.store.Notify(ctx, s.userUID, t, title, message, relatedID)
	if err != nil {
		return nil, fmt.Errorf("%w: add notification: %w", ErrActionFailed, err)
	}
	return n, nil
}

// Close releases the feed subscription and stops the event loop. It is
// safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
		<-s.stopped
		metrics.LiveSessionsActive.Dec()
	})
}

func (s *Session) run() {
	defer close(s.stopped)

	timer := time.NewTimer(s.cfg.ConnectTimeout)
	defer timer.Stop()
	ready := s.sub.Ready()
	timeout := timer.C

	for {
		select {
		case <-s.done:
			return
		case <-ready:
			ready, timeout = nil, nil
			s.setStatus(StatusConnected)
		case <-timeout:
			logging.Warn().Str("uid", s.userUID).Dur("timeout", s.cfg.ConnectTimeout).Msg("live: subscription not acknowledged in time")
			s.disconnect()
			return
		case err := <-s.sub.Err():
			logging.Warn().Err(err).Str("uid", s.userUID).Msg("live: channel dropped")
			s.disconnect()
			return
		case ev := <-s.sub.Events():
			s.apply(ev)
		}
	}
}

func (s *Session) apply(ev feed.Event) {
	n := ev.Notification
	if ev.UserUID != s.userUID || n.UserUID != s.userUID {
		logging.Warn().Str("uid", s.userUID).Str("event_uid", ev.UserUID).Msg("live: dropped event for another user")
		return
	}
	switch ev.Kind {
	case feed.KindInsert:
		fresh := false
		s.mutate(func(v *ViewState) bool {
			fresh = v.Upsert(n)
			return true
		})
		if !fresh {
			return
		}
		select {
		case s.alerts <- Alert{NotificationID: n.ID, Type: n.Type, Title: n.Title, Message: n.Message}:
		default:
		}
	case feed.KindUpdate:
		s.mutate(func(v *ViewState) bool { return v.Patch(n) })
	case feed.KindDelete:
		s.mutate(func(v *ViewState) bool { return v.Remove(n.ID) })
	}
}

func (s *Session) mutate(fn func(v *ViewState) bool) {
	s.mu.Lock()
	changed := fn(s.state)
	s.mu.Unlock()
	if changed {
		s.signal()
	}
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	changed := s.status != st
	s.status = st
	s.mu.Unlock()
	if changed {
		s.signal()
	}
}

func (s *Session) disconnect() {
	s.setStatus(StatusDisconnected)
	s.sub.Close()
}

func (s *Session) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
