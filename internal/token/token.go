package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"buildtrack/internal/models"
)

// Version is the token schema version embedded in every payload.
const Version = 1

const (
	// DefaultMaxAge is the acceptance window for the general dashboard flow.
	DefaultMaxAge = 7 * 24 * time.Hour
	// ResolveMaxAge is the short window for one-off token resolution.
	ResolveMaxAge = time.Hour
)

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Payload is the decoded content of a dashboard token: which user it was
// issued to, under which role, and the schema version. The payload is
// visible to holders of the token; integrity and expiry are what the
// signature provides, not secrecy.
type Payload struct {
	UserID  uint
	Role    models.Role
	Version int
}

type dashboardClaims struct {
	UserID  uint        `json:"u"`
	Role    models.Role `json:"r"`
	Version int         `json:"v"`
	jwt.RegisteredClaims
}

// Signer issues and parses signed dashboard tokens. The max-age window is
// chosen by the caller at parse time, so the same token can serve both the
// short resolve flow and the week-long dashboard flow.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Issue signs {u, r, v} plus the issue timestamp for the given profile.
func (s *Signer) Issue(profile *models.UserProfile) (string, error) {
	claims := dashboardClaims{
		UserID:  profile.UserID,
		Role:    profile.Role,
		Version: Version,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies the HMAC signature, then rejects tokens issued more than
// maxAge ago. Any malformed, unsigned or tampered token maps to ErrInvalid.
func (s *Signer) Parse(raw string, maxAge time.Duration) (*Payload, error) {
	var claims dashboardClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.IssuedAt == nil {
		return nil, ErrInvalid
	}
	if s.now().Sub(claims.IssuedAt.Time) > maxAge {
		return nil, ErrExpired
	}
	return &Payload{UserID: claims.UserID, Role: claims.Role, Version: claims.Version}, nil
}
