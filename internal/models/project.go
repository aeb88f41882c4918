package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectSource string
type ProjectType string
type ProjectCategory string
type ProjectStatus string

const (
	SourceGeneralContractor ProjectSource = "GC"
	SourceDirectClient      ProjectSource = "DC"

	TypeResidential ProjectType = "RES"
	TypeCommercial  ProjectType = "COM"
	TypeIndustrial  ProjectType = "IND"
	TypeOther       ProjectType = "OTH"

	CategoryPublic     ProjectCategory = "PUB"
	CategoryPrivate    ProjectCategory = "PRI"
	CategoryRenovation ProjectCategory = "REN"
	CategoryNewBuild   ProjectCategory = "NEW"

	StatusPlanned   ProjectStatus = "PL"
	StatusOngoing   ProjectStatus = "OG"
	StatusCompleted ProjectStatus = "CP"
	StatusCancelled ProjectStatus = "CN"
)

func (s ProjectSource) Valid() bool {
	return s == SourceGeneralContractor || s == SourceDirectClient
}

func (t ProjectType) Valid() bool {
	switch t {
	case TypeResidential, TypeCommercial, TypeIndustrial, TypeOther:
		return true
	}
	return false
}

// ProjectProfile is the aggregate root. Progress is derived from tasks by
// the aggregation routine and must not be hand-set anywhere else.
type ProjectProfile struct {
	gorm.Model

	CreatedByID      *uint
	CreatedBy        *UserProfile `gorm:"foreignKey:CreatedByID"`
	AssignedToID     *uint
	AssignedTo       *UserProfile `gorm:"foreignKey:AssignedToID"`
	ProjectManagerID *uint
	ProjectManager   *UserProfile `gorm:"foreignKey:ProjectManagerID"`

	ProjectSource   ProjectSource   `gorm:"type:varchar(2);not null"`
	ProjectCode     *string         `gorm:"uniqueIndex;size:50"`
	ProjectName     string          `gorm:"size:200;not null"`
	ProjectType     ProjectType     `gorm:"type:varchar(10);not null"`
	ProjectCategory ProjectCategory `gorm:"type:varchar(10)"`
	Description     string          `gorm:"type:text"`

	// General-contractor details (GC projects)
	GCCompanyName   string `gorm:"size:200"`
	GCLicenseNumber string `gorm:"size:100"`
	GCContactPerson string `gorm:"size:200"`
	GCContactNumber string `gorm:"size:50"`
	GCContactEmail  string `gorm:"size:255"`

	// Client details (DC projects)
	ClientName          string `gorm:"size:200"`
	ClientAddress       string `gorm:"size:300"`
	ClientContactPerson string `gorm:"size:200"`
	ClientContactNumber string `gorm:"size:50"`
	ClientContactEmail  string `gorm:"size:255"`

	Location       string `gorm:"size:300;not null"`
	GPSCoordinates string `gorm:"size:100"`
	CityProvince   string `gorm:"size:200"`

	StartDate            *time.Time
	TargetCompletionDate *time.Time
	ActualCompletionDate *time.Time

	EstimatedCost  *float64
	ApprovedBudget *float64
	Expense        *float64
	PaymentTerms   string `gorm:"type:text"`
	BudgetStatus   string `gorm:"size:20"`
	BudgetRemarks  string `gorm:"type:text"`

	SiteEngineer   string `gorm:"size:200"`
	Subcontractors string `gorm:"type:text"`

	// Opaque paths in the external file store
	ContractAgreementPath string `gorm:"size:255"`
	PermitsLicensesPath   string `gorm:"size:255"`

	Status   ProjectStatus `gorm:"type:varchar(2);not null;default:'PL'"`
	Progress float64       `gorm:"default:0"` // derived, 0-100, 2dp

	Tasks   []ProjectTask   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Budgets []ProjectBudget `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Costs   []ProjectCost   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Files   []ProjectFile   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

type ProjectFile struct {
	gorm.Model
	ProjectID uint `gorm:"not null;index"`

	FileName   string `gorm:"size:255"`
	StoredPath string `gorm:"size:255;not null"` // opaque, not interpreted
}
