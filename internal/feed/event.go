// Package feed carries notification change events from the store writers to
// live subscribers. Delivery is filtered per user on the broker side: a
// subscription only ever sees events for the uid it was opened with.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shinyyama/centace-backend/internal/model"
)

type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

var ErrEmptyUID = errors.New("feed: empty user uid")

type Event struct {
	Kind         Kind               `json:"kind"`
	UserUID      string             `json:"userUid"`
	Notification model.Notification `json:"notification"`
	At           time.Time          `json:"at"`
}

func NewEvent(kind Kind, n model.Notification) Event {
	return Event{Kind: kind, UserUID: n.UserUID, Notification: n, At: time.Now().UTC()}
}

type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, userUID string) (*Subscription, error)
}

const defaultBuffer = 64

// Subscription is one consumer's view of the feed for a single user.
// Events is never closed; consumers stop on Done or Err.
type Subscription struct {
	userUID string
	events  chan Event
	ready   chan struct{}
	errc    chan error
	done    chan struct{}

	readyOnce sync.Once
	closeOnce sync.Once
	release   func()
}

// NewSubscription is used by Broker implementations. release runs once on Close.
func NewSubscription(userUID string, buffer int, release func()) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Subscription{
		userUID: userUID,
		events:  make(chan Event, buffer),
		ready:   make(chan struct{}),
		errc:    make(chan error, 1),
		done:    make(chan struct{}),
		release: release,
	}
}

func (s *Subscription) UserUID() string { return s.userUID }

func (s *Subscription) Events() <-chan Event { return s.events }

// Ready is closed once the broker acknowledged the subscription.
func (s *Subscription) Ready() <-chan struct{} { return s.ready }

// Err yields at most one transport failure.
func (s *Subscription) Err() <-chan error { return s.errc }

func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
}

// MarkReady signals the broker acknowledged the subscription.
func (s *Subscription) MarkReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Fail reports a transport failure to the consumer.
func (s *Subscription) Fail(err error) {
	select {
	case s.errc <- err:
	default:
	}
}

// Deliver hands ev to the consumer without blocking. It reports false when
// the event was dropped, either because the buffer is full or the
// subscription is closed.
func (s *Subscription) Deliver(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}
