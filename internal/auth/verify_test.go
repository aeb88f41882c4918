package auth

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
	"buildtrack/internal/token"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, username string, role models.Role) *models.UserProfile {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	profile := models.UserProfile{UserID: user.ID, Role: role, FullName: username}
	require.NoError(t, db.Create(&profile).Error)
	return &profile
}

func newVerifier(db *gorm.DB) (*Verifier, *token.Signer) {
	signer := token.NewSigner([]byte("unit-test-secret-0123456789"))
	return NewVerifier(db, signer, 0), signer
}

func TestVerifyProfileSuccess(t *testing.T) {
	db := testDB(t)
	v, signer := newVerifier(db)

	pm := seedProfile(t, db, "alice", models.RoleProjectManager)
	raw, err := signer.Issue(pm)
	require.NoError(t, err)

	got, err := v.VerifyProfile(pm.UserID, raw, models.RoleProjectManager)
	require.NoError(t, err)
	assert.Equal(t, pm.ID, got.ID)
	assert.Equal(t, models.RoleProjectManager, got.Role)
}

func TestVerifyProfileInvalidToken(t *testing.T) {
	db := testDB(t)
	v, _ := newVerifier(db)

	_, err := v.VerifyProfile(1, "garbage", models.RoleProjectManager)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyProfileRoleMismatch(t *testing.T) {
	db := testDB(t)
	v, signer := newVerifier(db)

	pm := seedProfile(t, db, "alice", models.RoleProjectManager)
	raw, err := signer.Issue(pm)
	require.NoError(t, err)

	_, err = v.VerifyProfile(pm.UserID, raw, models.RoleOperationsManager)
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

// The role check must run before the profile lookup: a tampered role
// segment is reported as a permission problem even when the token's user
// has no profile at all.
func TestVerifyRoleCheckedBeforeProfileLookup(t *testing.T) {
	db := testDB(t)
	v, signer := newVerifier(db)

	orphan := models.UserProfile{UserID: 999, Role: models.RoleEngineer}
	raw, err := signer.Issue(&orphan)
	require.NoError(t, err)

	_, err = v.VerifyProfile(999, raw, models.RoleOperationsManager)
	assert.ErrorIs(t, err, ErrRoleMismatch)

	_, err = v.VerifyProfile(999, raw, models.RoleEngineer)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

// A stolen link must not work from another account, even with a valid
// token and matching role segment.
func TestVerifyProfileIdentityMismatch(t *testing.T) {
	db := testDB(t)
	v, signer := newVerifier(db)

	alice := seedProfile(t, db, "alice", models.RoleProjectManager)
	bob := seedProfile(t, db, "bob", models.RoleProjectManager)

	raw, err := signer.Issue(alice)
	require.NoError(t, err)

	_, err = v.VerifyProfile(bob.UserID, raw, models.RoleProjectManager)
	assert.ErrorIs(t, err, ErrIdentityMismatch)
}

func TestResolveProfile(t *testing.T) {
	db := testDB(t)
	v, signer := newVerifier(db)

	om := seedProfile(t, db, "carol", models.RoleOperationsManager)
	raw, err := signer.Issue(om)
	require.NoError(t, err)

	got, err := v.ResolveProfile(raw)
	require.NoError(t, err)
	assert.Equal(t, om.ID, got.ID)
}

func TestResolveProfileRoleChanged(t *testing.T) {
	db := testDB(t)
	v, signer := newVerifier(db)

	pm := seedProfile(t, db, "alice", models.RoleProjectManager)
	raw, err := signer.Issue(pm)
	require.NoError(t, err)

	// Demoting the profile after issue invalidates resolution: the lookup
	// matches on both user and role.
	require.NoError(t, db.Model(pm).Update("role", models.RoleViewOnly).Error)

	_, err = v.ResolveProfile(raw)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestEnsureProfile(t *testing.T) {
	db := testDB(t)

	user := models.User{Username: "dave", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	created, err := EnsureProfile(db, &user)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewOnly, created.Role)
	assert.Equal(t, "dave", created.FullName)

	again, err := EnsureProfile(db, &user)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	var count int64
	db.Model(&models.UserProfile{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Your session token has expired.", Message(ErrTokenExpired))
	assert.Equal(t, "Invalid token. Access denied.", Message(ErrTokenInvalid))
	assert.Equal(t, "You do not have permission to access this page.", Message(ErrRoleMismatch))
	assert.Equal(t, "User profile not found for this token.", Message(ErrProfileNotFound))
	assert.Equal(t, "This link does not belong to your account.", Message(ErrIdentityMismatch))
}
