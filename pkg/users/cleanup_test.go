package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memtensor/userapi/pkg/logger"
	"github.com/memtensor/userapi/pkg/metrics"
)

func TestCleanupScheduler_RunOnce(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.CreateToken(ctx, &Token{Token: "valid-recent", UserID: "u", IsValid: true, CreatedAt: now.Add(-10 * time.Minute)}))
	require.NoError(t, repo.CreateToken(ctx, &Token{Token: "invalid-recent", UserID: "u", IsValid: false, CreatedAt: now.Add(-10 * time.Minute)}))
	require.NoError(t, repo.CreateToken(ctx, &Token{Token: "valid-old", UserID: "u", IsValid: true, CreatedAt: now.Add(-2 * time.Hour)}))

	m := metrics.NewMemoryMetrics()
	scheduler := NewCleanupScheduler(repo, "0 0 * * *", time.Hour, logger.NewTestLogger()).WithMetrics(m)

	deleted, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.FindToken(ctx, "valid-recent")
	require.NoError(t, err)
	assert.NotNil(t, remaining)

	for _, gone := range []string{"invalid-recent", "valid-old"} {
		record, err := repo.FindToken(ctx, gone)
		require.NoError(t, err)
		assert.Nil(t, record, gone)
	}

	assert.Equal(t, 1.0, m.Snapshot()["token_cleanup_runs_total"])
	assert.Equal(t, 2.0, m.Snapshot()["token_cleanup_last_deleted"])
}

func TestCleanupScheduler_Lifecycle(t *testing.T) {
	repo := setupTestRepository(t)
	scheduler := NewCleanupScheduler(repo, "0 0 * * *", time.Hour, logger.NewTestLogger())

	require.NoError(t, scheduler.Start())
	assert.Error(t, scheduler.Start(), "second start must fail")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(ctx))

	// Stopping twice is a no-op
	assert.NoError(t, scheduler.Stop(ctx))
}

func TestCleanupScheduler_InvalidSchedule(t *testing.T) {
	repo := setupTestRepository(t)
	scheduler := NewCleanupScheduler(repo, "not a schedule", time.Hour, logger.NewTestLogger())

	err := scheduler.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cleanup schedule")
}

func TestCleanupScheduler_CanceledContext(t *testing.T) {
	repo := setupTestRepository(t)
	scheduler := NewCleanupScheduler(repo, "0 0 * * *", time.Hour, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scheduler.RunOnce(ctx)
	assert.Error(t, err)
}
