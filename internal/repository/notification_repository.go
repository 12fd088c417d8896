package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/centace-backend/internal/model"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// NotificationRepository is the notification store. Every read and mutation
// that touches an existing row is scoped by (id, user_uid); there is no
// id-only write path.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userUID string) (int64, error)
	FindByID(ctx context.Context, id uint64, userUID string) (*model.Notification, error)
	MarkRead(ctx context.Context, id uint64, userUID string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userUID string) ([]model.Notification, error)
	Delete(ctx context.Context, id uint64, userUID string) (*model.Notification, error)
	SetDB(db *gorm.DB)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Notification
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_uid = ?", userUID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userUID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_uid = ? AND is_read = ?", userUID, false).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// FindByID returns nil, nil when the row does not exist or belongs to another user.
func (r *notificationRepository) FindByID(ctx context.Context, id uint64, userUID string) (*model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var n model.Notification
	if err := r.db.WithContext(ctx).
		Scopes(ownedBy(id, userUID)).
		First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// MarkRead returns the updated row, or nil when nothing owned by userUID matched.
func (r *notificationRepository) MarkRead(ctx context.Context, id uint64, userUID string) (*model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var out *model.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n model.Notification
		if err := tx.Scopes(ownedBy(id, userUID)).First(&n).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		now := tx.NowFunc()
		if err := tx.Model(&model.Notification{}).
			Scopes(ownedBy(id, userUID)).
			Updates(map[string]interface{}{"is_read": true, "updated_at": now}).Error; err != nil {
			return err
		}
		n.IsRead = true
		n.UpdatedAt = now
		out = &n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAllRead flips every unread row of userUID in one batch and returns the rows it changed.
func (r *notificationRepository) MarkAllRead(ctx context.Context, userUID string) ([]model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var changed []model.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_uid = ? AND is_read = ?", userUID, false).Find(&changed).Error; err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		ids := make([]uint64, 0, len(changed))
		for _, n := range changed {
			ids = append(ids, n.ID)
		}
		now := tx.NowFunc()
		if err := tx.Model(&model.Notification{}).
			Where("user_uid = ? AND id IN ?", userUID, ids).
			Updates(map[string]interface{}{"is_read": true, "updated_at": now}).Error; err != nil {
			return err
		}
		for i := range changed {
			changed[i].IsRead = true
			changed[i].UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// Delete removes the row owned by userUID and returns it; nil means nothing was removed.
func (r *notificationRepository) Delete(ctx context.Context, id uint64, userUID string) (*model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var removed *model.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n model.Notification
		if err := tx.Scopes(ownedBy(id, userUID)).First(&n).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		res := tx.Scopes(ownedBy(id, userUID)).Delete(&model.Notification{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			removed = &n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *notificationRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func ownedBy(id uint64, userUID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ? AND user_uid = ?", id, userUID)
	}
}
