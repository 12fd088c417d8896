package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/shinyyama/centace-backend/internal/feed"
	"github.com/shinyyama/centace-backend/internal/live"
	"github.com/shinyyama/centace-backend/internal/model"
)

type memStore struct {
	mu     sync.Mutex
	rows   map[uint64]model.Notification
	broker feed.Broker
}

func (m *memStore) List(_ context.Context, uid string, _ bool, _ int) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.rows {
		if n.UserUID == uid {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkRead(ctx context.Context, uid string, id uint64) (*model.Notification, error) {
	m.mu.Lock()
	n, ok := m.rows[id]
	if !ok || n.UserUID != uid {
		m.mu.Unlock()
		return nil, nil
	}
	n.IsRead = true
	m.rows[id] = n
	m.mu.Unlock()
	_ = m.broker.Publish(ctx, feed.NewEvent(feed.KindUpdate, n))
	return &n, nil
}

func (m *memStore) MarkAllRead(context.Context, string) ([]model.Notification, error) {
	return nil, nil
}

func (m *memStore) Delete(context.Context, string, uint64) (bool, error) {
	return false, nil
}

func (m *memStore) Notify(context.Context, string, model.NotificationType, string, string, *string) (*model.Notification, error) {
	return nil, nil
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startServer(t *testing.T) (*websocket.Conn, *feed.MemoryBroker) {
	t.Helper()
	broker := feed.NewMemoryBroker(8)
	store := &memStore{
		rows:   map[uint64]model.Notification{1: {ID: 1, UserUID: "alice", Title: "hello"}},
		broker: broker,
	}
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		session, err := live.Open(context.Background(), live.Config{}, store, broker, "alice")
		if err != nil {
			_ = conn.Close()
			return
		}
		NewClient(conn, session).Run(context.Background())
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, broker
}

// readUntil reads frames until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func unreadOf(t *testing.T, f frame) int {
	t.Helper()
	var v live.View
	if err := json.Unmarshal(f.Data, &v); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return v.UnreadCount
}

func TestClientSnapshotAndMarkRead(t *testing.T) {
	conn, _ := startServer(t)

	first := readUntil(t, conn, func(f frame) bool { return f.Type == MessageTypeSnapshot })
	if got := unreadOf(t, first); got != 1 {
		t.Fatalf("initial unread = %d, want 1", got)
	}

	if err := conn.WriteJSON(Command{Type: MessageTypeMarkRead, ID: 1}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(f frame) bool {
		return f.Type == MessageTypeSnapshot && unreadOf(t, f) == 0
	})
}

func TestClientPingAndUnknownCommand(t *testing.T) {
	conn, _ := startServer(t)

	if err := conn.WriteJSON(Command{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(f frame) bool { return f.Type == MessageTypePong })

	if err := conn.WriteJSON(Command{Type: "explode"}); err != nil {
		t.Fatal(err)
	}
	f := readUntil(t, conn, func(f frame) bool { return f.Type == MessageTypeError })
	var e ErrorData
	if err := json.Unmarshal(f.Data, &e); err != nil {
		t.Fatal(err)
	}
	if e.Action != "explode" {
		t.Fatalf("error action = %q", e.Action)
	}
}

func TestClientCloseReleasesSession(t *testing.T) {
	conn, broker := startServer(t)
	readUntil(t, conn, func(f frame) bool { return f.Type == MessageTypeSnapshot })
	if broker.Subscribers("alice") != 1 {
		t.Fatalf("subscribers = %d, want 1", broker.Subscribers("alice"))
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for broker.Subscribers("alice") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not closed after socket close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
