package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/centace-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepository interface {
	// Get returns nil, nil when the user never saved preferences.
	Get(ctx context.Context, userUID string) (*model.EmailPreference, error)
	Save(ctx context.Context, p *model.EmailPreference) error
	SetDB(db *gorm.DB)
}

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Get(ctx context.Context, userUID string) (*model.EmailPreference, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.EmailPreference
	if err := r.db.WithContext(ctx).Where("user_uid = ?", userUID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *preferenceRepository) Save(ctx context.Context, p *model.EmailPreference) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_uid"}},
		UpdateAll: true,
	}).Create(p).Error
}

func (r *preferenceRepository) SetDB(db *gorm.DB) {
	r.db = db
}
