package models

import (
	"time"

	"gorm.io/gorm"
)

type UpdateStatus string

const (
	UpdatePending  UpdateStatus = "P"
	UpdateApproved UpdateStatus = "A"
	UpdateRejected UpdateStatus = "R"
)

// ProgressUpdate is an incremental contribution proposed by a profile and
// reviewed by OM/EG. Immutable after review except for the review stamp.
type ProgressUpdate struct {
	gorm.Model
	TaskID uint `gorm:"not null;index"`
	Task   ProjectTask

	ReportedByID *uint
	ReportedBy   *UserProfile `gorm:"foreignKey:ReportedByID"`

	ProgressPercent float64 `gorm:"not null"`
	Remarks         string  `gorm:"type:text"`

	Status       UpdateStatus `gorm:"type:varchar(1);not null;default:'P'"`
	ReviewedByID *uint
	ReviewedBy   *UserProfile `gorm:"foreignKey:ReviewedByID"`
	ReviewedAt   *time.Time

	Attachments []ProgressFile `gorm:"foreignKey:UpdateID;constraint:OnDelete:CASCADE"`
}

// ProgressFile is a proof attachment for an update, addressed by an opaque
// path in the external file store.
type ProgressFile struct {
	gorm.Model
	UpdateID uint `gorm:"not null;index"`

	FileName   string `gorm:"size:255"`
	StoredPath string `gorm:"size:255;not null"`
}
