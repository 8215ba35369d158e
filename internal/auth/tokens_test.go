package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internhub/internhub/internal/shared"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(t *testing.T, clock *fakeClock) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", "internhub", time.Hour, clock.Now)
	require.NoError(t, err)
	return m
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, exp, err := m.Issue(shared.Principal{ID: "u-1", Role: shared.RoleIntern})
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), exp)

	p, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, shared.Principal{ID: "u-1", Role: shared.RoleIntern}, p)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)
	token, exp, err := m.Issue(shared.Principal{ID: "u-1", Role: shared.RoleHR})
	require.NoError(t, err)

	clock.t = exp.Add(-time.Second)
	_, err = m.Verify(token)
	require.NoError(t, err)

	clock.t = exp
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	clock.t = exp.Add(time.Second)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(t, clock)
	claims := Claims{
		User: TokenUser{ID: "u-1", Role: "CEO"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "internhub",
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}

	wrongSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = m.Verify(wrongSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid, "wrong secret")

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Verify(wrongAlg)
	assert.ErrorIs(t, err, ErrTokenInvalid, "wrong alg")

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(unsigned)
	assert.ErrorIs(t, err, ErrTokenInvalid, "alg none")

	_, err = m.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid, "garbage")

	noExp := claims
	noExp.ExpiresAt = nil
	noExpToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Verify(noExpToken)
	assert.ErrorIs(t, err, ErrTokenInvalid, "missing exp")
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(t, clock)
	claims := Claims{
		User: TokenUser{ID: "u-1", Role: "ADMIN"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "internhub",
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewTokenManagerValidation(t *testing.T) {
	_, err := NewTokenManager("", "x", time.Hour, nil)
	assert.Error(t, err)
	_, err = NewTokenManager("s", "x", 0, nil)
	assert.Error(t, err)
}
