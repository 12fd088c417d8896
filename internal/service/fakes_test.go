package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shinyyama/centace-backend/internal/model"
	"gorm.io/gorm"
)

type fakeNotificationRepo struct {
	mu        sync.Mutex
	rows      map[uint64]model.Notification
	nextID    uint64
	createErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: make(map[uint64]model.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	n.ID = f.nextID
	f.rows[n.ID] = *n
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, uid string, unreadOnly bool, _ int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.rows {
		if n.UserUID == uid && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, uid string) (int64, error) {
	list, _ := f.ListByUser(ctx, uid, true, 0)
	return int64(len(list)), nil
}

func (f *fakeNotificationRepo) FindByID(_ context.Context, id uint64, uid string) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.UserUID != uid {
		return nil, nil
	}
	return &n, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id uint64, uid string) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.UserUID != uid {
		return nil, nil
	}
	n.IsRead = true
	f.rows[id] = n
	return &n, nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, uid string) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var changed []model.Notification
	for id, n := range f.rows {
		if n.UserUID == uid && !n.IsRead {
			n.IsRead = true
			f.rows[id] = n
			changed = append(changed, n)
		}
	}
	return changed, nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, id uint64, uid string) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.UserUID != uid {
		return nil, nil
	}
	delete(f.rows, id)
	return &n, nil
}

func (f *fakeNotificationRepo) SetDB(*gorm.DB) {}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []model.Notification
	hook  func(ctx context.Context)
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, n model.Notification) bool {
	if d.hook != nil {
		d.hook(ctx)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, n)
	return true
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type fakeProfileRepo struct {
	mu   sync.Mutex
	rows map[string]model.Profile
}

func newFakeProfileRepo(uids ...string) *fakeProfileRepo {
	f := &fakeProfileRepo{rows: make(map[string]model.Profile)}
	for _, uid := range uids {
		f.rows[uid] = model.Profile{UserUID: uid, Email: uid + "@example.com", Role: model.RoleUser}
	}
	return f
}

func (f *fakeProfileRepo) Get(_ context.Context, uid string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakeProfileRepo) Upsert(_ context.Context, p *model.Profile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.rows[p.UserUID]
	if ok {
		p.Role = existing.Role
	} else if p.Role == "" {
		p.Role = model.RoleUser
	}
	f.rows[p.UserUID] = *p
	return !ok, nil
}

func (f *fakeProfileRepo) ListUIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.rows))
	for uid := range f.rows {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeProfileRepo) SetDB(*gorm.DB) {}

type fakePreferenceRepo struct {
	rows map[string]*model.EmailPreference
}

func (f *fakePreferenceRepo) Get(_ context.Context, uid string) (*model.EmailPreference, error) {
	row, ok := f.rows[uid]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakePreferenceRepo) Save(_ context.Context, p *model.EmailPreference) error {
	cp := *p
	f.rows[p.UserUID] = &cp
	return nil
}

func (f *fakePreferenceRepo) SetDB(*gorm.DB) {}

type fakeInvestmentRepo struct {
	rows []model.Investment
	err  error
}

func (f *fakeInvestmentRepo) Create(_ context.Context, inv *model.Investment) error {
	if f.err != nil {
		return f.err
	}
	inv.ID = uint64(len(f.rows) + 1)
	f.rows = append(f.rows, *inv)
	return nil
}

func (f *fakeInvestmentRepo) ListByUser(_ context.Context, uid string) ([]model.Investment, error) {
	var out []model.Investment
	for _, inv := range f.rows {
		if inv.UserUID == uid {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvestmentRepo) SetDB(*gorm.DB) {}

type fakeSiteVisitRepo struct {
	rows map[uint64]model.SiteVisit
}

func (f *fakeSiteVisitRepo) Create(_ context.Context, v *model.SiteVisit) error {
	v.ID = uint64(len(f.rows) + 1)
	f.rows[v.ID] = *v
	return nil
}

func (f *fakeSiteVisitRepo) FindByID(_ context.Context, id uint64) (*model.SiteVisit, error) {
	v, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (f *fakeSiteVisitRepo) Update(_ context.Context, v *model.SiteVisit) error {
	if _, ok := f.rows[v.ID]; !ok {
		return errors.New("missing row")
	}
	f.rows[v.ID] = *v
	return nil
}

func (f *fakeSiteVisitRepo) ListByUser(_ context.Context, uid string) ([]model.SiteVisit, error) {
	var out []model.SiteVisit
	for _, v := range f.rows {
		if v.UserUID == uid {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeSiteVisitRepo) SetDB(*gorm.DB) {}
