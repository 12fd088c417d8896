package repository

import (
	"context"

	"github.com/shinyyama/centace-backend/internal/model"
	"gorm.io/gorm"
)

type InvestmentRepository interface {
	Create(ctx context.Context, inv *model.Investment) error
	ListByUser(ctx context.Context, userUID string) ([]model.Investment, error)
	SetDB(db *gorm.DB)
}

type investmentRepository struct {
	db *gorm.DB
}

func NewInvestmentRepository(db *gorm.DB) InvestmentRepository {
	return &investmentRepository{db: db}
}

func (r *investmentRepository) Create(ctx context.Context, inv *model.Investment) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *investmentRepository) ListByUser(ctx context.Context, userUID string) ([]model.Investment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Investment
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", userUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *investmentRepository) SetDB(db *gorm.DB) {
	r.db = db
}
