package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/internhub/internhub/internal/shared"
)

// ErrTokenInvalid is returned for any token that fails verification.
var ErrTokenInvalid = errors.New("token is not valid")

// TokenUser is the identity payload embedded under the "user" claim.
type TokenUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Claims is the JWT payload.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a TokenManager. now may be nil.
func NewTokenManager(secret, issuer string, ttl time.Duration, now func() time.Time) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret required")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: now}, nil
}

// TTL reports the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for p.
func (m *TokenManager) Issue(p shared.Principal) (string, time.Time, error) {
	if p.ID == "" || !p.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: invalid principal")
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		User: TokenUser{ID: p.ID, Role: string(p.Role)},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry, then decodes the principal.
// A token is accepted only while now is strictly before exp.
func (m *TokenManager) Verify(raw string) (shared.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return shared.Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	role, err := shared.ParseRole(claims.User.Role)
	if err != nil || claims.User.ID == "" {
		return shared.Principal{}, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	return shared.Principal{ID: claims.User.ID, Role: role}, nil
}
