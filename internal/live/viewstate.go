package live

import "github.com/shinyyama/centace-backend/internal/model"

// ViewState is a user's notification list, newest first, with the unread
// count derived from it. It is not safe for concurrent use; Session guards it.
type ViewState struct {
	items  []model.Notification
	unread int
}

func NewViewState() *ViewState {
	return &ViewState{}
}

// Seed replaces the contents with list, keeping the first occurrence of each id.
func (v *ViewState) Seed(list []model.Notification) {
	seen := make(map[uint64]struct{}, len(list))
	v.items = make([]model.Notification, 0, len(list))
	for _, n := range list {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		v.items = append(v.items, n)
	}
	v.recount()
}

// Upsert prepends n, or replaces the entry with the same id in place. It
// reports whether n was new.
func (v *ViewState) Upsert(n model.Notification) bool {
	defer v.recount()
	if i := v.index(n.ID); i >= 0 {
		v.items[i] = n
		return false
	}
	v.items = append([]model.Notification{n}, v.items...)
	return true
}

// Patch copies the mutable fields of n onto the entry with the same id.
// Unknown ids are ignored.
func (v *ViewState) Patch(n model.Notification) bool {
	i := v.index(n.ID)
	if i < 0 {
		return false
	}
	v.items[i].IsRead = n.IsRead
	v.items[i].Message = n.Message
	v.items[i].UpdatedAt = n.UpdatedAt
	v.recount()
	return true
}

func (v *ViewState) Remove(id uint64) bool {
	i := v.index(id)
	if i < 0 {
		return false
	}
	v.items = append(v.items[:i], v.items[i+1:]...)
	v.recount()
	return true
}

func (v *ViewState) SetRead(id uint64) bool {
	i := v.index(id)
	if i < 0 {
		return false
	}
	v.items[i].IsRead = true
	v.recount()
	return true
}

func (v *ViewState) SetAllRead() {
	for i := range v.items {
		v.items[i].IsRead = true
	}
	v.recount()
}

func (v *ViewState) UnreadCount() int { return v.unread }

func (v *ViewState) Len() int { return len(v.items) }

func (v *ViewState) Snapshot() []model.Notification {
	out := make([]model.Notification, len(v.items))
	copy(out, v.items)
	return out
}

func (v *ViewState) index(id uint64) int {
	for i := range v.items {
		if v.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (v *ViewState) recount() {
	c := 0
	for i := range v.items {
		if !v.items[i].IsRead {
			c++
		}
	}
	v.unread = c
}
