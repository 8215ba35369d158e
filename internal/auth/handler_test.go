package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/internhub/internhub/internal/auth"
	"github.com/internhub/internhub/internal/shared"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *auth.TokenManager) {
	t.Helper()
	tokens, err := auth.NewTokenManager("secret", "internhub", 5*time.Hour, nil)
	require.NoError(t, err)
	handler := auth.NewHandler(nil, auth.NewService(repo, tokens), tokens)
	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountRoutes)
	return r, tokens
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: "u-1", Email: "intern@test.local", Role: shared.RoleIntern, PasswordHash: hashed(t, "correctpass"), IsActive: true}}
	router, tokens := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"intern@test.local","password":"correctpass"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	p, err := tokens.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, shared.Principal{ID: "u-1", Role: shared.RoleIntern}, p)
}

func TestLoginInvalidCredentials(t *testing.T) {
	active := &auth.User{ID: "u-1", Email: "user@test.local", Role: shared.RoleHR, PasswordHash: hashed(t, "correctpass"), IsActive: true}
	inactive := *active
	inactive.IsActive = false

	cases := map[string]struct {
		user *auth.User
		body string
	}{
		"wrong password": {active, `{"email":"user@test.local","password":"wrongpass"}`},
		"unknown email":  {active, `{"email":"nobody@test.local","password":"correctpass"}`},
		"inactive":       {&inactive, `{"email":"user@test.local","password":"correctpass"}`},
		"malformed":      {active, `{"email":"not-an-email"}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			router, _ := newAuthRouter(t, &stubRepo{user: tc.user})
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Equal(t, "Invalid Credentials", decodeProblem(t, res).Msg)
		})
	}
}

func TestMeReturnsCurrentUser(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: "u-2", Email: "hr@test.local", Name: "Hana", Role: shared.RoleHR, IsActive: true}}
	router, tokens := newAuthRouter(t, repo)
	token, _, err := tokens.Issue(shared.Principal{ID: "u-2", Role: shared.RoleHR})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(auth.TokenHeader, token)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"email":"hr@test.local"`)
	assert.NotContains(t, res.Body.String(), "password")
}
