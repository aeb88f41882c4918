package models

import (
	"time"

	"gorm.io/gorm"
)

type CostCategory string

const (
	CategoryLabor         CostCategory = "LAB"
	CategoryMaterials     CostCategory = "MAT"
	CategoryEquipment     CostCategory = "EQP"
	CategorySubcontractor CostCategory = "SUB"
	CategoryOtherCost     CostCategory = "OTH"
)

func (c CostCategory) Valid() bool {
	switch c {
	case CategoryLabor, CategoryMaterials, CategoryEquipment, CategorySubcontractor, CategoryOtherCost:
		return true
	}
	return false
}

func (c CostCategory) Display() string {
	switch c {
	case CategoryLabor:
		return "Labor"
	case CategoryMaterials:
		return "Materials"
	case CategoryEquipment:
		return "Equipment"
	case CategorySubcontractor:
		return "Subcontractor"
	case CategoryOtherCost:
		return "Other"
	}
	return string(c)
}

// ProjectBudget is a planned amount per cost category per project.
type ProjectBudget struct {
	gorm.Model
	ProjectID uint `gorm:"not null;index"`

	Category      CostCategory `gorm:"type:varchar(3);not null"`
	PlannedAmount float64      `gorm:"not null"`

	Allocations []FundAllocation `gorm:"foreignKey:ProjectBudgetID;constraint:OnDelete:CASCADE"`
}

// ProjectCost is an actual expenditure. It is linked to budgets by
// (project, category) rather than by budget row; costs may predate the
// budget line they count against.
type ProjectCost struct {
	gorm.Model
	ProjectID uint `gorm:"not null;index"`

	Category     CostCategory `gorm:"type:varchar(3);not null"`
	Description  string       `gorm:"size:255"`
	Amount       float64      `gorm:"not null"`
	DateIncurred time.Time

	LinkedTaskID *uint
	LinkedTask   *ProjectTask `gorm:"foreignKey:LinkedTaskID"`
}

// FundAllocation is a drawdown against a specific budget line.
type FundAllocation struct {
	gorm.Model
	ProjectBudgetID uint          `gorm:"not null;index"`
	ProjectBudget   ProjectBudget `gorm:"foreignKey:ProjectBudgetID"`

	Amount        float64 `gorm:"not null"`
	DateAllocated time.Time
	Note          string `gorm:"size:255"`
}
