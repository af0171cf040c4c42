package repository

import (
	"context"
	"os"
	"testing"

	"challenge_grader/internal/domain/model"
	"challenge_grader/internal/platform/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database only when GRADER_TEST_DATABASE_URL is set.
func TestPgLeaderboardRepository(t *testing.T) {
	connStr := os.Getenv("GRADER_TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("GRADER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureLeaderboardSchema(ctx, db))
	_, err = db.ExecContext(ctx, `DELETE FROM leaderboard_entries WHERE problem_id = 'pg-test'`)
	require.NoError(t, err)

	repo := NewPgLeaderboardRepository(db)

	updated, err := repo.Record(ctx, "alice", "pg-test", model.Score{Passed: 1, Total: 2})
	require.NoError(t, err)
	assert.True(t, updated)
	updated, err = repo.Record(ctx, "alice", "pg-test", model.Score{Passed: 2, Total: 2})
	require.NoError(t, err)
	assert.True(t, updated)
	updated, err = repo.Record(ctx, "alice", "pg-test", model.Score{Passed: 1, Total: 3})
	require.NoError(t, err)
	assert.False(t, updated)
	updated, err = repo.Record(ctx, "bob", "pg-test", model.Score{Passed: 1, Total: 2})
	require.NoError(t, err)
	assert.True(t, updated)

	entries, err := repo.Rank(ctx, "pg-test")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].UserID)
	assert.Equal(t, model.Score{Passed: 2, Total: 2}, entries[0].BestScore)
	assert.Equal(t, "bob", entries[1].UserID)
}
