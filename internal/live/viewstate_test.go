package live

import (
	"math/rand"
	"testing"

	"github.com/shinyyama/centace-backend/internal/model"
)

func countUnread(items []model.Notification) int {
	c := 0
	for _, n := range items {
		if !n.IsRead {
			c++
		}
	}
	return c
}

func TestViewStateUnreadInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	v := NewViewState()
	v.Seed([]model.Notification{{ID: 1}, {ID: 2, IsRead: true}, {ID: 3}})

	for step := 0; step < 2000; step++ {
		id := uint64(rng.Intn(12) + 1)
		switch rng.Intn(5) {
		case 0:
			v.Upsert(model.Notification{ID: id, IsRead: rng.Intn(2) == 0})
		case 1:
			v.Patch(model.Notification{ID: id, IsRead: rng.Intn(2) == 0})
		case 2:
			v.Remove(id)
		case 3:
			v.SetRead(id)
		case 4:
			if rng.Intn(10) == 0 {
				v.SetAllRead()
			}
		}
		if got, want := v.UnreadCount(), countUnread(v.Snapshot()); got != want {
			t.Fatalf("step %d: UnreadCount() = %d, want %d", step, got, want)
		}
	}
}

func TestViewStateOperations(t *testing.T) {
	tests := []struct {
		name       string
		run        func(v *ViewState)
		wantIDs    []uint64
		wantUnread int
	}{
		{
			name:       "insert prepends",
			run:        func(v *ViewState) { v.Upsert(model.Notification{ID: 9}) },
			wantIDs:    []uint64{9, 3, 2, 1},
			wantUnread: 3,
		},
		{
			name:       "duplicate insert replaces in place",
			run:        func(v *ViewState) { v.Upsert(model.Notification{ID: 2, IsRead: true}) },
			wantIDs:    []uint64{3, 2, 1},
			wantUnread: 1,
		},
		{
			name:       "update for unknown id is ignored",
			run:        func(v *ViewState) { v.Patch(model.Notification{ID: 42, IsRead: true}) },
			wantIDs:    []uint64{3, 2, 1},
			wantUnread: 2,
		},
		{
			name:       "update patches read flag",
			run:        func(v *ViewState) { v.Patch(model.Notification{ID: 3, IsRead: true}) },
			wantIDs:    []uint64{3, 2, 1},
			wantUnread: 1,
		},
		{
			name: "delete twice",
			run: func(v *ViewState) {
				v.Remove(2)
				v.Remove(2)
			},
			wantIDs:    []uint64{3, 1},
			wantUnread: 1,
		},
		{
			name:       "mark all read",
			run:        func(v *ViewState) { v.SetAllRead() },
			wantIDs:    []uint64{3, 2, 1},
			wantUnread: 0,
		},
		{
			name: "seed drops duplicate ids",
			run: func(v *ViewState) {
				v.Seed([]model.Notification{{ID: 5}, {ID: 5, IsRead: true}, {ID: 4}})
			},
			wantIDs:    []uint64{5, 4},
			wantUnread: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewState()
			v.Seed([]model.Notification{{ID: 3}, {ID: 2}, {ID: 1, IsRead: true}})
			tt.run(v)
			got := v.Snapshot()
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Fatalf("item %d id = %d, want %d", i, got[i].ID, id)
				}
			}
			if v.UnreadCount() != tt.wantUnread {
				t.Fatalf("unread = %d, want %d", v.UnreadCount(), tt.wantUnread)
			}
		})
	}
}
