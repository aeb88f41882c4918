package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"buildtrack/internal/models"
	"buildtrack/internal/token"
)

// Verification failures, in the order the checks run. Each carries a
// distinct user-visible message via Message; all of them land on the
// unauthorized page at the handler boundary.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrRoleMismatch     = errors.New("role mismatch")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrIdentityMismatch = errors.New("identity mismatch")
)

// Message returns the text shown to the user for a verification failure.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "Your session token has expired."
	case errors.Is(err, ErrTokenInvalid):
		return "Invalid token. Access denied."
	case errors.Is(err, ErrRoleMismatch):
		return "You do not have permission to access this page."
	case errors.Is(err, ErrProfileNotFound):
		return "User profile not found for this token."
	case errors.Is(err, ErrIdentityMismatch):
		return "This link does not belong to your account."
	}
	return "Access denied."
}

// Verifier is the single choke point turning (authenticated user, token,
// claimed role segment) into a verified profile or a denial.
type Verifier struct {
	db     *gorm.DB
	signer *token.Signer
	maxAge time.Duration
}

// NewVerifier builds a verifier accepting dashboard tokens up to maxAge
// old; zero means the default week-long window. One-off resolution always
// uses the short window regardless of maxAge.
func NewVerifier(db *gorm.DB, signer *token.Signer, maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = token.DefaultMaxAge
	}
	return &Verifier{db: db, signer: signer, maxAge: maxAge}
}

// VerifyProfile runs the checks in order and short-circuits on the first
// failure:
//
//  1. parse and validate the token signature and age
//  2. the role segment from the URL must equal the role baked into the token
//  3. the token's user must still have a profile
//  4. the profile must belong to the authenticated caller; tokens are not
//     anonymous bearer credentials and cannot be replayed by another account
func (v *Verifier) VerifyProfile(currentUserID uint, raw string, claimedRole models.Role) (*models.UserProfile, error) {
	payload, err := v.signer.Parse(raw, v.maxAge)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claimedRole != payload.Role {
		return nil, ErrRoleMismatch
	}

	var profile models.UserProfile
	if err := v.db.Preload("User").Where("user_id = ?", payload.UserID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if currentUserID != profile.UserID {
		return nil, ErrIdentityMismatch
	}

	return &profile, nil
}

// ResolveProfile parses with the short one-off window and looks up the
// profile matching both the user and the role from the payload.
func (v *Verifier) ResolveProfile(raw string) (*models.UserProfile, error) {
	payload, err := v.signer.Parse(raw, token.ResolveMaxAge)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	var profile models.UserProfile
	err = v.db.Preload("User").
		Where("user_id = ? AND role = ?", payload.UserID, payload.Role).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// EnsureProfile fetches the caller's profile, creating a default view-only
// one on first need. Explicit replacement for the original's signal-driven
// profile auto-creation.
func EnsureProfile(db *gorm.DB, user *models.User) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := db.Where("user_id = ?", user.ID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = models.UserProfile{
		UserID:   user.ID,
		Role:     models.RoleViewOnly,
		FullName: user.Username,
	}
	if err := db.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
