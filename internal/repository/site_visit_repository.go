package repository

import (
	"context"

	"github.com/shinyyama/centace-backend/internal/model"
	"gorm.io/gorm"
)

type SiteVisitRepository interface {
	Create(ctx context.Context, v *model.SiteVisit) error
	FindByID(ctx context.Context, id uint64) (*model.SiteVisit, error)
	Update(ctx context.Context, v *model.SiteVisit) error
	ListByUser(ctx context.Context, userUID string) ([]model.SiteVisit, error)
	SetDB(db *gorm.DB)
}

type siteVisitRepository struct {
	db *gorm.DB
}

func NewSiteVisitRepository(db *gorm.DB) SiteVisitRepository {
	return &siteVisitRepository{db: db}
}

func (r *siteVisitRepository) Create(ctx context.Context, v *model.SiteVisit) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *siteVisitRepository) FindByID(ctx context.Context, id uint64) (*model.SiteVisit, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var v model.SiteVisit
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *siteVisitRepository) Update(ctx context.Context, v *model.SiteVisit) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *siteVisitRepository) ListByUser(ctx context.Context, userUID string) ([]model.SiteVisit, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.SiteVisit
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", userUID).
		Order("visit_date ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *siteVisitRepository) SetDB(db *gorm.DB) {
	r.db = db
}
