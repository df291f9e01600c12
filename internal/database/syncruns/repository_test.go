package syncruns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/notebooksync/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.SyncRun{})
	require.NoError(t, err)

	return db
}

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

func TestRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	repo.now = steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1500*time.Millisecond)

	t.Run("complete", func(t *testing.T) {
		run, err := repo.Start(ctx)
		require.NoError(t, err)
		assert.NotZero(t, run.ID)
		assert.Equal(t, entities.SyncStatusRunning, run.Status)

		require.NoError(t, repo.Complete(ctx, run, 3, 7, 1))

		last, err := repo.LastCompleted(ctx)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, run.ID, last.ID)
		assert.Equal(t, 3, last.ItemCount)
		assert.Equal(t, 7, last.AnnotationCount)
		assert.Equal(t, 1, last.FailedItems)
		assert.Equal(t, int64(1500), last.DurationMs)
		require.NotNil(t, last.CompletedAt)
	})

	t.Run("fail", func(t *testing.T) {
		run, err := repo.Start(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.Fail(ctx, run, "authentication failed"))

		runs, err := repo.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, entities.SyncStatusFailed, runs[0].Status)
		assert.Equal(t, "authentication failed", runs[0].Error)
		assert.Equal(t, entities.SyncStatusCompleted, runs[1].Status)
	})
}

func TestRepository_LastCompleted_None(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	last, err := repo.LastCompleted(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestRepository_MarkInterrupted(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	_, err := repo.Start(ctx)
	require.NoError(t, err)
	done, err := repo.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Complete(ctx, done, 1, 1, 0))

	n, err := repo.MarkInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	runs, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	for _, run := range runs {
		assert.NotEqual(t, entities.SyncStatusRunning, run.Status)
	}
}
