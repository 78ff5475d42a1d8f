package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memtensor/userapi/pkg/logger"
)

const testSecret = "test-secret"

// Helper functions shared by the package tests

func testConfig() *Config {
	config := DefaultConfig()
	config.DatabaseURL = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	config.JWTSecret = testSecret
	config.ConnectTimeout = time.Second
	return config
}

func setupTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(context.Background(), testConfig(), logger.NewTestLogger())
	require.NoError(t, err)

	t.Cleanup(func() { teardownTestRepository(t, repo) })
	return repo
}

func teardownTestRepository(t *testing.T, repo *Repository) {
	err := repo.Close()
	assert.NoError(t, err)
}

// createTestUser stores a user whose password hashes "Password123"
func createTestUser(t *testing.T, repo *Repository, email string) *User {
	t.Helper()

	hash, err := HashPassword("Password123")
	require.NoError(t, err)

	user := &User{
		Email:     email,
		Password:  hash,
		Firstname: "Test",
		Lastname:  "User",
		IsActive:  true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
