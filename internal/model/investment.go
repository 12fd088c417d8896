package model

import "time"

type InvestmentStatus string

const (
	InvestmentStatusConfirmed InvestmentStatus = "confirmed"
	InvestmentStatusCanceled  InvestmentStatus = "canceled"
)

type Investment struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement"`
	UserUID     string           `gorm:"column:user_uid;size:128;index;not null"`
	ProjectID   uint64           `gorm:"column:project_id;index;not null"`
	ProjectName string           `gorm:"column:project_name;size:255"`
	AmountCents int64            `gorm:"column:amount_cents;not null"`
	Currency    string           `gorm:"column:currency;size:3;not null;default:USD"`
	Status      InvestmentStatus `gorm:"column:status;size:32;not null"`
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime"`
}

func (Investment) TableName() string {
	return "investments"
}
