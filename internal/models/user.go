package models

import "gorm.io/gorm"

type Role string

const (
	RoleViewOnly          Role = "VO"
	RoleProjectManager    Role = "PM"
	RoleOperationsManager Role = "OM"
	RoleEngineer          Role = "EG"
)

// Valid reports whether r is one of the four known role codes.
func (r Role) Valid() bool {
	switch r {
	case RoleViewOnly, RoleProjectManager, RoleOperationsManager, RoleEngineer:
		return true
	}
	return false
}

func (r Role) Display() string {
	switch r {
	case RoleViewOnly:
		return "View Only"
	case RoleProjectManager:
		return "Project Manager"
	case RoleOperationsManager:
		return "Operations Manager"
	case RoleEngineer:
		return "Engineer"
	}
	return string(r)
}

// User is the authentication identity. The application core only reads it;
// credentials and email verification are handled by the auth handlers.
type User struct {
	gorm.Model
	Username      string `gorm:"uniqueIndex;size:150;not null"`
	Email         string `gorm:"size:255"`
	EmailVerified bool   `gorm:"default:false"`
	IsSuperuser   bool   `gorm:"default:false"`
	PasswordHash  string `gorm:"not null"`
}

// UserProfile carries the application role and display name, one-to-one
// with User. Created lazily via EnsureProfile on first need.
type UserProfile struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null"`
	User   User

	Role       Role   `gorm:"type:varchar(2);not null;default:'VO'"`
	FullName   string `gorm:"size:150"`
	AvatarPath string `gorm:"size:255"` // opaque path in the external file store
}
