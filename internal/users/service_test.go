package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/shared"
)

var hrActor = shared.Principal{ID: "hr-1", Role: shared.RoleHR}

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	repo.batches["batch-1"] = "Summer 2025"
	repo.batches["batch-2"] = "Winter 2025"
	return NewService(repo, nil, nil, nil), repo
}

func TestApplyBatchRule(t *testing.T) {
	assert.Nil(t, ApplyBatchRule(shared.RoleHR, strPtr("b")))
	assert.Nil(t, ApplyBatchRule(shared.RoleCEO, strPtr("b")))
	assert.Nil(t, ApplyBatchRule(shared.RoleIntern, nil))
	assert.Nil(t, ApplyBatchRule(shared.RoleIntern, strPtr("")))
	assert.Equal(t, "b", *ApplyBatchRule(shared.RoleMentor, strPtr("b")))
}

func TestCreateUserHashesPasswordAndKeepsBatchForInterns(t *testing.T) {
	svc, repo := newTestService(t)
	user, err := svc.CreateUser(context.Background(), hrActor, CreateInput{
		Email: " Intern@Test.local ", Password: "secret1", Name: "Ina", Role: "intern", BatchID: strPtr("batch-1"),
	})
	require.NoError(t, err)

	stored := repo.users[user.ID]
	assert.Equal(t, "intern@test.local", stored.Email)
	assert.Equal(t, shared.RoleIntern, stored.Role)
	require.NotNil(t, stored.BatchID)
	assert.Equal(t, "batch-1", *stored.BatchID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)
}

func TestCreateUserDropsBatchForAdmins(t *testing.T) {
	svc, repo := newTestService(t)
	user, err := svc.CreateUser(context.Background(), hrActor, CreateInput{
		Email: "ceo@test.local", Password: "secret1", Name: "Cey", Role: "CEO", BatchID: strPtr("batch-1"),
	})
	require.NoError(t, err)
	assert.Nil(t, repo.users[user.ID].BatchID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	in := CreateInput{Email: "dup@test.local", Password: "secret1", Name: "Dup", Role: "MENTOR"}
	_, err := svc.CreateUser(context.Background(), hrActor, in)
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), hrActor, in)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.Equal(t, "User already exists", err.Error())
}

func TestCreateUserRejectsUnknownRoleAndBatch(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateUser(context.Background(), hrActor, CreateInput{Email: "a@test.local", Password: "secret1", Name: "A", Role: "ADMIN"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateUser(context.Background(), hrActor, CreateInput{Email: "b@test.local", Password: "secret1", Name: "B", Role: "INTERN", BatchID: strPtr("nope")})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateUserForcesNullBatchForHRAndCEO(t *testing.T) {
	svc, _ := newTestService(t)
	user, err := svc.CreateUser(context.Background(), hrActor, CreateInput{Email: "m@test.local", Password: "secret1", Name: "M", Role: "MENTOR", BatchID: strPtr("batch-1")})
	require.NoError(t, err)

	for _, role := range []string{"HR", "CEO"} {
		updated, err := svc.UpdateUser(context.Background(), hrActor, user.ID, UpdateInput{Role: strPtr(role), BatchID: strPtr("batch-2")})
		require.NoError(t, err)
		assert.Equal(t, shared.Role(role), updated.Role)
		assert.Nil(t, updated.BatchID, role)
	}
}

func TestUpdateUserDoesNotResurrectBatch(t *testing.T) {
	svc, _ := newTestService(t)
	user, err := svc.CreateUser(context.Background(), hrActor, CreateInput{Email: "i@test.local", Password: "secret1", Name: "I", Role: "INTERN", BatchID: strPtr("batch-1")})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(context.Background(), hrActor, user.ID, UpdateInput{Role: strPtr("HR")})
	require.NoError(t, err)
	assert.Nil(t, updated.BatchID)

	updated, err = svc.UpdateUser(context.Background(), hrActor, user.ID, UpdateInput{Role: strPtr("INTERN")})
	require.NoError(t, err)
	assert.Nil(t, updated.BatchID)

	updated, err = svc.UpdateUser(context.Background(), hrActor, user.ID, UpdateInput{BatchID: strPtr("batch-2")})
	require.NoError(t, err)
	require.NotNil(t, updated.BatchID)
	assert.Equal(t, "batch-2", *updated.BatchID)
	assert.Equal(t, "Winter 2025", updated.BatchName)
}

func TestUpdateUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateUser(context.Background(), hrActor, "missing", UpdateInput{Name: strPtr("x")})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Equal(t, "User not found", err.Error())
}

func TestDeleteSelfIsForbidden(t *testing.T) {
	svc, repo := newTestService(t)
	repo.users[hrActor.ID] = User{ID: hrActor.ID, Email: "hr@test.local", Role: shared.RoleHR, IsActive: true}

	err := svc.DeleteUser(context.Background(), hrActor, hrActor.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Equal(t, "You cannot delete your own account.", err.Error())

	stored, ok := repo.users[hrActor.ID]
	require.True(t, ok)
	assert.True(t, stored.IsActive)
}

func TestDeleteUser(t *testing.T) {
	svc, repo := newTestService(t)
	repo.users["u-2"] = User{ID: "u-2", Email: "x@test.local", Role: shared.RoleIntern}

	require.NoError(t, svc.DeleteUser(context.Background(), hrActor, "u-2"))
	assert.NotContains(t, repo.users, "u-2")
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), hrActor, "u-2"), httpx.ErrNotFound)
}
