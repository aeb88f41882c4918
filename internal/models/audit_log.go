package models

import "time"

type AuditLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ProfileID uint
	Profile   UserProfile `gorm:"foreignKey:ProfileID"`

	Entity   string `gorm:"size:50;not null"` // "project", "task", "budget", "allocation", "update", "profile"
	EntityID uint
	Action   string `gorm:"size:50;not null"` // "create", "approve", "delete" etc.
	Details  string `gorm:"type:text"`
}
