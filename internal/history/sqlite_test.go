package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(config.HistoryConfig{
		Path: filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, models.ReviewRecord{
		Repository:   "azure:org:proj:repo",
		PullRequest:  42,
		Severity:     models.SeverityMajor,
		Approved:     false,
		Vote:         -5,
		CommentCount: 3,
		Summary:      "Needs work",
		ReviewedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = store.Record(ctx, models.ReviewRecord{
		Repository:  "azure:org:proj:other",
		PullRequest: 7,
		Severity:    models.SeverityApproved,
		Approved:    true,
		Vote:        10,
		Summary:     "ok",
		ReviewedAt:  time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	all, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first.
	assert.Equal(t, 7, all[0].PullRequest)
	assert.Equal(t, 42, all[1].PullRequest)
	assert.Equal(t, models.SeverityMajor, all[1].Severity)
	assert.Equal(t, -5, all[1].Vote)
	assert.False(t, all[1].Approved)
	assert.True(t, all[1].ReviewedAt.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)))

	filtered, err := store.List(ctx, "azure:org:proj:repo", 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, 42, filtered[0].PullRequest)
}

func TestListLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Record(ctx, models.ReviewRecord{
			Repository:  "r",
			PullRequest: i,
			Severity:    models.SeverityMinor,
			Summary:     "s",
		})
		require.NoError(t, err)
	}

	records, err := store.List(ctx, "r", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLastForPR(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	missing, err := store.LastForPR(ctx, "r", 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = store.Record(ctx, models.ReviewRecord{
		Repository: "r", PullRequest: 1, Severity: models.SeverityMajor, Vote: -5,
		Summary: "first", ReviewedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = store.Record(ctx, models.ReviewRecord{
		Repository: "r", PullRequest: 1, Severity: models.SeverityApproved, Vote: 10,
		Summary: "second", ReviewedAt: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	last, err := store.LastForPR(ctx, "r", 1)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "second", last.Summary)
	assert.Equal(t, 10, last.Vote)
}

func TestMigrateIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))
	assert.Equal(t, "sqlite", store.Driver())
}
