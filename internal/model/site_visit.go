package model

import "time"

type SiteVisitStatus string

const (
	SiteVisitStatusPending   SiteVisitStatus = "pending"
	SiteVisitStatusConfirmed SiteVisitStatus = "confirmed"
	SiteVisitStatusCanceled  SiteVisitStatus = "canceled"
)

type SiteVisit struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	UserUID     string          `gorm:"column:user_uid;size:128;index;not null"`
	ProjectID   uint64          `gorm:"column:project_id;index;not null"`
	ProjectName string          `gorm:"column:project_name;size:255"`
	VisitDate   time.Time       `gorm:"column:visit_date;not null"`
	Status      SiteVisitStatus `gorm:"column:status;size:32;not null"`
	ConfirmedAt *time.Time      `gorm:"column:confirmed_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (SiteVisit) TableName() string {
	return "site_visits"
}
