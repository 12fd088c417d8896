package model

import "time"

type ProfileRole string

const (
	RoleUser  ProfileRole = "user"
	RoleAdmin ProfileRole = "admin"
)

type Profile struct {
	UserUID   string      `gorm:"column:user_uid;primaryKey;size:128"`
	Email     string      `gorm:"column:email;size:255;index"`
	FullName  string      `gorm:"column:full_name;size:255"`
	Role      ProfileRole `gorm:"column:role;size:16;not null;default:user"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
