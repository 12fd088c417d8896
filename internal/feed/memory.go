package feed

import (
	"context"
	"sync"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/metrics"
)

// MemoryBroker fans events out inside one process. Subscribers are indexed
// by uid so a publish only touches that user's subscriptions.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

func NewMemoryBroker(buffer int) *MemoryBroker {
	return &MemoryBroker{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

func (b *MemoryBroker) Subscribe(_ context.Context, userUID string) (*Subscription, error) {
	if userUID == "" {
		return nil, ErrEmptyUID
	}
	var sub *Subscription
	sub = NewSubscription(userUID, b.buffer, func() { b.remove(sub) })

	b.mu.Lock()
	set, ok := b.subs[userUID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[userUID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	sub.MarkReady()
	return sub, nil
}

func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	if ev.UserUID == "" {
		return ErrEmptyUID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[ev.UserUID] {
		if sub.Deliver(ev) {
			metrics.FeedEvents.WithLabelValues(string(ev.Kind), "published").Inc()
			continue
		}
		metrics.FeedEvents.WithLabelValues(string(ev.Kind), "dropped").Inc()
		logging.Warn().
			Str("uid", ev.UserUID).
			Str("kind", string(ev.Kind)).
			Uint64("notification_id", ev.Notification.ID).
			Msg("feed: subscriber buffer full, event dropped")
	}
	return nil
}

// Subscribers returns the number of open subscriptions for userUID.
func (b *MemoryBroker) Subscribers(userUID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userUID])
}

func (b *MemoryBroker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[sub.userUID]
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.userUID)
	}
}
