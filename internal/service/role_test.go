package service

import (
	"context"
	"testing"

	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleService_AssignRejectsDuplicates(t *testing.T) {
	svc := NewRoleService(repository.NewRoleRepository(newTestDB(t)))
	ctx := context.Background()

	role, err := svc.Assign(ctx, "user-1", model.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, "user-1", role.UserID)

	_, err = svc.Assign(ctx, "user-1", model.RoleModerator)
	assert.ErrorIs(t, err, ErrDuplicateRole)

	_, err = svc.Assign(ctx, "user-1", model.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Assign(ctx, "user-1", "owner")
	assert.ErrorIs(t, err, ErrValidation)

	roles, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestRoleService_RevokeAndHasAnyRole(t *testing.T) {
	svc := NewRoleService(repository.NewRoleRepository(newTestDB(t)))
	ctx := context.Background()

	role, err := svc.Assign(ctx, "user-2", model.RoleModerator)
	require.NoError(t, err)

	ok, err := svc.HasAnyRole(ctx, "user-2", model.RoleAdmin, model.RoleModerator)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasAnyRole(ctx, "user-2", model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Revoke(ctx, role.ID))
	assert.ErrorIs(t, svc.Revoke(ctx, role.ID), ErrNotFound)

	ok, err = svc.HasAnyRole(ctx, "user-2", model.RoleModerator)
	require.NoError(t, err)
	assert.False(t, ok)
}
