package model

import "time"

type Notification struct {
	ID        uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserUID   string           `gorm:"column:user_uid;size:128;index:idx_notifications_user_created,priority:1;not null" json:"userId"`
	Type      NotificationType `gorm:"column:type;size:32;not null" json:"type"`
	Title     string           `gorm:"column:title;size:255" json:"title"`
	Message   string           `gorm:"column:message;type:text" json:"message"`
	IsRead    bool             `gorm:"column:is_read;not null;default:false" json:"isRead"`
	RelatedID *string          `gorm:"column:related_id;size:128" json:"relatedId,omitempty"`
	CreatedAt time.Time        `gorm:"autoCreateTime;index:idx_notifications_user_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
