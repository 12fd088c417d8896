package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"github.com/shinyyama/centace-backend/internal/model"
)

func newTestRedisBroker(t *testing.T, addr string, connectTimeout time.Duration) (*RedisBroker, *redis.Client) {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBroker(client, "test:", connectTimeout), client
}

func waitReady(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Ready():
	case err := <-sub.Err():
		t.Fatalf("subscription failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription never confirmed")
	}
}

func TestRedisBrokerDeliversOnlyOwnEvents(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	b, client := newTestRedisBroker(t, mr.Addr(), 2*time.Second)

	sub, err := b.Subscribe(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()
	waitReady(t, sub)

	// foreign payload pushed straight onto a's channel
	foreign, err := json.Marshal(NewEvent(KindInsert, model.Notification{ID: 1, UserUID: "b", Title: "not yours"}))
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Publish(ctx, b.Channel("a"), foreign).Err(); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(ctx, NewEvent(KindInsert, model.Notification{ID: 3, UserUID: "b"})); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(ctx, NewEvent(KindInsert, model.Notification{ID: 2, UserUID: "a", Title: "yours"})); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-sub.Events():
		if ev.UserUID != "a" || ev.Notification.ID != 2 {
			t.Fatalf("first event = %+v, want id 2 for a", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("own event not delivered")
	}
	if ev, ok := recv(t, sub); ok {
		t.Fatalf("unexpected extra event %+v", ev)
	}
}

func TestRedisBrokerReportsLostConnection(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newTestRedisBroker(t, mr.Addr(), 2*time.Second)

	sub, err := b.Subscribe(context.Background(), "a")
	if err != nil {
		mr.Close()
		t.Fatal(err)
	}
	defer sub.Close()
	waitReady(t, sub)

	mr.Close()
	select {
	case err := <-sub.Err():
		if err == nil {
			t.Fatal("nil error on lost connection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("lost connection not reported")
	}
}

func TestRedisBrokerConnectTimeout(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	b, _ := newTestRedisBroker(t, addr, 300*time.Millisecond)
	sub, err := b.Subscribe(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	select {
	case <-sub.Ready():
		t.Fatal("ready without a server")
	case err := <-sub.Err():
		if err == nil {
			t.Fatal("nil error on failed subscribe")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("failed subscribe not reported within the connect timeout")
	}
}

func TestRedisBrokerCloseIsQuiet(t *testing.T) {
	mr := miniredis.RunT(t)
	b, _ := newTestRedisBroker(t, mr.Addr(), 2*time.Second)

	sub, err := b.Subscribe(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	waitReady(t, sub)
	sub.Close()

	select {
	case err := <-sub.Err():
		t.Fatalf("closing reported an error: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
