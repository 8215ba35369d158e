package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" intern ")
	require.NoError(t, err)
	assert.Equal(t, RoleIntern, role)

	_, err = ParseRole("ADMIN")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRolePredicates(t *testing.T) {
	cases := map[Role]struct{ admin, batch bool }{
		RoleIntern: {false, true},
		RoleMentor: {false, true},
		RoleHR:     {true, false},
		RoleCEO:    {true, false},
	}
	for role, want := range cases {
		assert.Equal(t, want.admin, role.IsAdmin(), role)
		assert.Equal(t, want.batch, role.TakesBatch(), role)
	}
	assert.False(t, Role("GUEST").Valid())
	assert.Len(t, AllRoles(), 4)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithPrincipal(context.Background(), Principal{ID: "u1", Role: RoleHR})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, RoleHR, p.Role)
}
