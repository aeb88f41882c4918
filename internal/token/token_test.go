package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildtrack/internal/models"
)

var testSecret = []byte("unit-test-secret-0123456789")

func TestIssueParseRoundTrip(t *testing.T) {
	s := NewSigner(testSecret)

	profile := &models.UserProfile{
		UserID: 7,
		Role:   models.RoleProjectManager,
	}

	raw, err := s.Issue(profile)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	payload, err := s.Parse(raw, DefaultMaxAge)
	require.NoError(t, err)
	assert.Equal(t, uint(7), payload.UserID)
	assert.Equal(t, models.RoleProjectManager, payload.Role)
	assert.Equal(t, Version, payload.Version)
}

func TestParseMaxAgeWindows(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewSigner(testSecret)
	s.now = func() time.Time { return issued }

	raw, err := s.Issue(&models.UserProfile{UserID: 1, Role: models.RoleEngineer})
	require.NoError(t, err)

	// Two hours later the token is past the one-hour resolve window but
	// still inside the week-long dashboard window.
	s.now = func() time.Time { return issued.Add(2 * time.Hour) }

	_, err = s.Parse(raw, ResolveMaxAge)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = s.Parse(raw, DefaultMaxAge)
	assert.NoError(t, err)

	s.now = func() time.Time { return issued.Add(8 * 24 * time.Hour) }
	_, err = s.Parse(raw, DefaultMaxAge)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestParseRejectsTampering(t *testing.T) {
	s := NewSigner(testSecret)

	raw, err := s.Issue(&models.UserProfile{UserID: 2, Role: models.RoleViewOnly})
	require.NoError(t, err)

	// Flip a character in the payload segment.
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	payload[0] ^= 1
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = s.Parse(tampered, DefaultMaxAge)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	raw, err := NewSigner([]byte("some-other-secret-value!")).
		Issue(&models.UserProfile{UserID: 3, Role: models.RoleEngineer})
	require.NoError(t, err)

	_, err = NewSigner(testSecret).Parse(raw, DefaultMaxAge)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsGarbage(t *testing.T) {
	s := NewSigner(testSecret)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := s.Parse(raw, DefaultMaxAge)
		assert.ErrorIs(t, err, ErrInvalid)
	}
}
