package repository

import (
	"context"

	"github.com/shinyyama/centace-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	Get(ctx context.Context, userUID string) (*model.Profile, error)
	// Upsert creates or updates the profile and reports whether it was created.
	Upsert(ctx context.Context, p *model.Profile) (bool, error)
	ListUIDs(ctx context.Context) ([]string, error)
	SetDB(db *gorm.DB)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userUID string) (*model.Profile, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("user_uid = ?", userUID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) Upsert(ctx context.Context, p *model.Profile) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	if p.Role == "" {
		p.Role = model.RoleUser
	}
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := insertIfAbsent(tx, p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			created = true
			return nil
		}
		var existing model.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_uid = ?", p.UserUID).
			First(&existing).Error; err != nil {
			return err
		}
		p.Role = existing.Role
		p.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Updates(map[string]interface{}{
			"email":     p.Email,
			"full_name": p.FullName,
		}).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// insertIfAbsent creates p unless a row with the same user_uid exists. A
// concurrent first write leaves RowsAffected at zero instead of failing.
func insertIfAbsent(tx *gorm.DB, p *model.Profile) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_uid"}},
		DoNothing: true,
	}).Create(p)
}

func (r *profileRepository) ListUIDs(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var uids []string
	if err := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Order("user_uid ASC").
		Pluck("user_uid", &uids).Error; err != nil {
		return nil, err
	}
	return uids, nil
}

func (r *profileRepository) SetDB(db *gorm.DB) {
	r.db = db
}
