package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskPlanned   TaskStatus = "PL"
	TaskOngoing   TaskStatus = "OG"
	TaskCompleted TaskStatus = "CP"
)

// ProjectTask belongs to exactly one project. Weight is the task's declared
// percentage contribution to the project; weights are caller-supplied and
// not required to sum to 100. Progress is derived from approved updates.
type ProjectTask struct {
	gorm.Model
	ProjectID uint `gorm:"not null;index"`

	TaskName    string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Scope       string `gorm:"size:255"` // e.g. "Electrical works"

	AssignedToID *uint
	AssignedTo   *UserProfile `gorm:"foreignKey:AssignedToID"`

	StartDate    *time.Time
	EndDate      *time.Time
	DurationDays *float64
	Manhours     *float64

	Weight      float64    `gorm:"not null"`
	Progress    float64    `gorm:"default:0"`
	IsCompleted bool       `gorm:"default:false"`
	Status      TaskStatus `gorm:"type:varchar(2);not null;default:'PL'"`

	Updates []ProgressUpdate `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}
