package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/metrics"
)

// RedisBroker publishes events on one Pub/Sub channel per user, so several
// API instances share a feed. A subscription that loses its connection
// reports the failure on Err and stops; it does not resubscribe.
type RedisBroker struct {
	client         *redis.Client
	prefix         string
	connectTimeout time.Duration
	buffer         int
}

func NewRedisBroker(client *redis.Client, prefix string, connectTimeout time.Duration) *RedisBroker {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	return &RedisBroker{
		client:         client,
		prefix:         prefix,
		connectTimeout: connectTimeout,
		buffer:         defaultBuffer,
	}
}

func (b *RedisBroker) Channel(userUID string) string {
	return b.prefix + "notifications:" + userUID
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	if ev.UserUID == "" {
		return ErrEmptyUID
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("feed: encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.Channel(ev.UserUID), data).Err(); err != nil {
		metrics.FeedEvents.WithLabelValues(string(ev.Kind), "failed").Inc()
		return fmt.Errorf("feed: publish: %w", err)
	}
	metrics.FeedEvents.WithLabelValues(string(ev.Kind), "published").Inc()
	return nil
}

// Subscribe returns immediately; Ready closes once redis confirms the
// subscription and Err fires if it never does within the connect timeout.
func (b *RedisBroker) Subscribe(ctx context.Context, userUID string) (*Subscription, error) {
	if userUID == "" {
		return nil, ErrEmptyUID
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ps := b.client.Subscribe(loopCtx, b.Channel(userUID))

	sub := NewSubscription(userUID, b.buffer, func() {
		cancel()
		_ = ps.Close()
	})
	go b.run(loopCtx, ps, sub)
	return sub, nil
}

func (b *RedisBroker) run(ctx context.Context, ps *redis.PubSub, sub *Subscription) {
	if err := b.awaitConfirmation(ctx, ps); err != nil {
		if !closed(sub) {
			sub.Fail(fmt.Errorf("feed: subscribe %s: %w", sub.userUID, err))
		}
		return
	}
	sub.MarkReady()

	for {
		msg, err := ps.Receive(ctx)
		if err != nil {
			if !closed(sub) {
				sub.Fail(fmt.Errorf("feed: receive: %w", err))
			}
			return
		}
		m, ok := msg.(*redis.Message)
		if !ok {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
			logging.Warn().Err(err).Str("channel", m.Channel).Msg("feed: undecodable payload")
			continue
		}
		if ev.UserUID != sub.userUID {
			continue
		}
		if !sub.Deliver(ev) && !closed(sub) {
			metrics.FeedEvents.WithLabelValues(string(ev.Kind), "dropped").Inc()
			logging.Warn().Str("uid", ev.UserUID).Str("kind", string(ev.Kind)).Msg("feed: subscriber buffer full, event dropped")
		}
	}
}

func (b *RedisBroker) awaitConfirmation(ctx context.Context, ps *redis.PubSub) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = b.connectTimeout

	op := func() error {
		msg, err := ps.ReceiveTimeout(ctx, b.connectTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		switch msg.(type) {
		case *redis.Subscription:
			return nil
		default:
			return backoff.Permanent(fmt.Errorf("unexpected reply %T", msg))
		}
	}
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}

func closed(sub *Subscription) bool {
	select {
	case <-sub.Done():
		return true
	default:
		return false
	}
}
