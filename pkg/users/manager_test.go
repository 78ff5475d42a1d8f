package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/memtensor/userapi/pkg/errors"
	"github.com/memtensor/userapi/pkg/logger"
)

func setupTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(setupTestRepository(t), logger.NewTestLogger())
}

func validParams() CreateUserParams {
	return CreateUserParams{
		Email:     "test@example.com",
		Password:  "TestPass123",
		Firstname: "Test",
		Lastname:  "User",
	}
}

func TestManager_CreateUser(t *testing.T) {
	manager := setupTestManager(t)

	user, err := manager.CreateUser(context.Background(), validParams())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, DefaultRole, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "TestPass123", user.Password)
	assert.True(t, VerifyPassword("TestPass123", user.Password))
}

func TestManager_CreateUser_OptionalFields(t *testing.T) {
	manager := setupTestManager(t)

	params := validParams()
	params.Age = intPtr(40)
	params.Phone = strPtr("1555000111")
	params.Role = "manager"
	params.IsActive = boolPtr(false)

	user, err := manager.CreateUser(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 40, *user.Age)
	assert.Equal(t, "1555000111", *user.Phone)
	assert.Equal(t, "manager", user.Role)
	assert.False(t, user.IsActive)
}

func TestManager_CreateUser_DuplicateEmail(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	_, err := manager.CreateUser(ctx, validParams())
	require.NoError(t, err)

	_, err = manager.CreateUser(ctx, validParams())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternal))
}

func TestManager_CreateUser_Validation(t *testing.T) {
	manager := setupTestManager(t)

	params := validParams()
	params.Password = "short"
	_, err := manager.CreateUser(context.Background(), params)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, MsgPasswordTooShort, err.Error())
}

func TestManager_GetUser(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	created, err := manager.CreateUser(ctx, validParams())
	require.NoError(t, err)

	user, err := manager.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = manager.GetUser(ctx, "non-existent")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "User not found", err.Error())
}

func TestManager_UpdateUser(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	created, err := manager.CreateUser(ctx, validParams())
	require.NoError(t, err)

	updated, err := manager.UpdateUser(ctx, created.ID, UpdateUserParams{
		Firstname: strPtr("Updated"),
		Password:  strPtr("NewPass456"),
		Role:      strPtr("admin"),
		IsActive:  boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Firstname)
	assert.Equal(t, "User", updated.Lastname)
	assert.Equal(t, "admin", updated.Role)
	assert.False(t, updated.IsActive)
	assert.True(t, VerifyPassword("NewPass456", updated.Password))

	_, err = manager.UpdateUser(ctx, "non-existent", UpdateUserParams{Firstname: strPtr("X")})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternal))
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestManager_DeleteUser(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	created, err := manager.CreateUser(ctx, validParams())
	require.NoError(t, err)

	require.NoError(t, manager.DeleteUser(ctx, created.ID))

	_, err = manager.GetUser(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))

	err = manager.DeleteUser(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternal))
}

func TestManager_ListUsers(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		params := validParams()
		params.Email = email
		_, err := manager.CreateUser(ctx, params)
		require.NoError(t, err)
	}

	page, err := manager.ListUsers(ctx, UserFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Users, 1)

	page, err = manager.ListUsers(ctx, UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultLimit, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Users, 3)
}
