package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/memtensor/userapi/pkg/errors"
	"github.com/memtensor/userapi/pkg/logger"
	"github.com/memtensor/userapi/pkg/metrics"
)

func setupTestSessions(t *testing.T) (*SessionManager, *Repository) {
	t.Helper()
	repo := setupTestRepository(t)
	sessions := NewSessionManager(repo, NewTokenCodec(testSecret, time.Hour), logger.NewTestLogger())
	return sessions, repo
}

func TestSessionManager_LoginThenAuthenticate(t *testing.T) {
	sessions, repo := setupTestSessions(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "alice@example.com")

	result, err := sessions.Login(ctx, "alice@example.com", "Password123")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)

	record, err := repo.FindToken(ctx, result.Token)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.IsValid)
	assert.Equal(t, user.ID, record.UserID)

	identity, err := sessions.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "alice@example.com", identity.Email)
}

func TestSessionManager_LoginFailures(t *testing.T) {
	sessions, repo := setupTestSessions(t)
	ctx := context.Background()
	createTestUser(t, repo, "alice@example.com")

	t.Run("unknown email", func(t *testing.T) {
		_, err := sessions.Login(ctx, "nobody@example.com", "Password123")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, "User not found", err.Error())
	})

	t.Run("wrong password writes no token", func(t *testing.T) {
		_, err := sessions.Login(ctx, "alice@example.com", "WrongPass1")
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidCredentials(err))
		assert.Equal(t, "Invalid credentials", err.Error())

		n, err := repo.DeleteStaleTokens(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, n, "no token row should exist")
	})
}

func TestSessionManager_Logout(t *testing.T) {
	sessions, repo := setupTestSessions(t)
	ctx := context.Background()
	createTestUser(t, repo, "alice@example.com")

	result, err := sessions.Login(ctx, "alice@example.com", "Password123")
	require.NoError(t, err)

	require.NoError(t, sessions.Logout(ctx, result.Token))

	_, err = sessions.Authenticate(ctx, result.Token)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	// Idempotent
	require.NoError(t, sessions.Logout(ctx, result.Token))
	record, err := repo.FindToken(ctx, result.Token)
	require.NoError(t, err)
	assert.False(t, record.IsValid)

	err = sessions.Logout(ctx, "")
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestSessionManager_LogoutLeavesOtherSessions(t *testing.T) {
	sessions, repo := setupTestSessions(t)
	ctx := context.Background()
	createTestUser(t, repo, "alice@example.com")

	first, err := sessions.Login(ctx, "alice@example.com", "Password123")
	require.NoError(t, err)
	second, err := sessions.Login(ctx, "alice@example.com", "Password123")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	require.NoError(t, sessions.Logout(ctx, first.Token))

	_, err = sessions.Authenticate(ctx, first.Token)
	assert.True(t, apperrors.IsForbidden(err))

	identity, err := sessions.Authenticate(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", identity.Email)

	record, err := repo.FindToken(ctx, second.Token)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.IsValid)
}

func TestSessionManager_Authenticate(t *testing.T) {
	sessions, repo := setupTestSessions(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "alice@example.com")

	t.Run("no token", func(t *testing.T) {
		_, err := sessions.Authenticate(ctx, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthenticated(err))
		assert.Equal(t, MsgNoToken, err.Error())
	})

	t.Run("validly signed but unrecorded", func(t *testing.T) {
		token, err := NewTokenCodec(testSecret, time.Hour).Sign(user)
		require.NoError(t, err)

		_, err = sessions.Authenticate(ctx, token)
		require.Error(t, err)
		assert.True(t, apperrors.IsForbidden(err))
		assert.Equal(t, MsgInvalidToken, err.Error())
	})

	t.Run("recorded but tampered", func(t *testing.T) {
		forged, err := NewTokenCodec("attacker", time.Hour).Sign(user)
		require.NoError(t, err)
		require.NoError(t, repo.CreateToken(ctx, &Token{Token: forged, UserID: user.ID, IsValid: true}))

		_, err = sessions.Authenticate(ctx, forged)
		require.Error(t, err)
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("recorded but expired", func(t *testing.T) {
		codec := NewTokenCodec(testSecret, time.Minute)
		codec.now = func() time.Time { return time.Now().Add(-time.Hour) }
		expired, err := codec.Sign(user)
		require.NoError(t, err)
		require.NoError(t, repo.CreateToken(ctx, &Token{Token: expired, UserID: user.ID, IsValid: true}))

		_, err = sessions.Authenticate(ctx, expired)
		require.Error(t, err)
		assert.True(t, apperrors.IsForbidden(err))
	})
}

func TestSessionManager_Metrics(t *testing.T) {
	sessions, repo := setupTestSessions(t)
	m := metrics.NewMemoryMetrics()
	sessions.WithMetrics(m)
	ctx := context.Background()
	createTestUser(t, repo, "alice@example.com")

	_, _ = sessions.Login(ctx, "alice@example.com", "nope")
	_, _ = sessions.Login(ctx, "alice@example.com", "Password123")
	_, _ = sessions.Authenticate(ctx, "")

	snap := m.Snapshot()
	assert.Equal(t, 1.0, snap[`logins_total{outcome="bad_password"}`])
	assert.Equal(t, 1.0, snap[`logins_total{outcome="success"}`])
	assert.Equal(t, 1.0, snap[`authentications_total{outcome="missing"}`])
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	identity := &Identity{UserID: "u1", Email: "u1@example.com"}
	ctx := WithIdentity(context.Background(), identity)

	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, identity, got)
	assert.Equal(t, "u1 <u1@example.com>", got.String())
}
