package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"challenge_grader/internal/common"
	"challenge_grader/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock returns a strictly increasing time on every call.
func tickingClock() func() time.Time {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func newTestFileRepo(t *testing.T, name string) (*fileLeaderboardRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	repo, err := newFileLeaderboardRepository(path, tickingClock())
	require.NoError(t, err)
	return repo, path
}

func TestFileLeaderboardMaxWins(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestFileRepo(t, "leaderboard.json")

	updated, err := repo.Record(ctx, "alice", "p1", model.Score{Passed: 1, Total: 2})
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.Record(ctx, "alice", "p1", model.Score{Passed: 2, Total: 2})
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.Record(ctx, "alice", "p1", model.Score{Passed: 3, Total: 10})
	require.NoError(t, err)
	assert.False(t, updated)

	entries, err := repo.Rank(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.Score{Passed: 2, Total: 2}, entries[0].BestScore)
	assert.Equal(t, "alice", entries[0].UserID)
}

func TestFileLeaderboardEqualScoreKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestFileRepo(t, "leaderboard.json")

	_, err := repo.Record(ctx, "bob", "p1", model.Score{Passed: 1, Total: 2})
	require.NoError(t, err)
	before, err := repo.Rank(ctx, "p1")
	require.NoError(t, err)

	// 2/4 equals 1/2, so neither the score nor the timestamp moves
	updated, err := repo.Record(ctx, "bob", "p1", model.Score{Passed: 2, Total: 4})
	require.NoError(t, err)
	assert.False(t, updated)

	after, err := repo.Rank(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileLeaderboardRankOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestFileRepo(t, "leaderboard.json")

	records := []struct {
		user, problem string
		score         model.Score
	}{
		{"carol", "p1", model.Score{Passed: 1, Total: 4}},
		{"alice", "p1", model.Score{Passed: 3, Total: 4}},
		{"bob", "p1", model.Score{Passed: 3, Total: 4}},
		{"dave", "p2", model.Score{Passed: 2, Total: 2}},
	}
	for _, r := range records {
		_, err := repo.Record(ctx, r.user, r.problem, r.score)
		require.NoError(t, err)
	}

	p1, err := repo.Rank(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, p1, 3)
	// alice and bob tie on score; alice recorded first
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{p1[0].UserID, p1[1].UserID, p1[2].UserID})

	all, err := repo.Rank(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "dave", all[0].UserID)

	none, err := repo.Rank(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileLeaderboardConcurrentRecordsConverge(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestFileRepo(t, "leaderboard.json")

	const total = 20
	var wg sync.WaitGroup
	for passed := 0; passed <= total; passed++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Record(ctx, "alice", "p1", model.Score{Passed: passed, Total: total})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := repo.Rank(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.Score{Passed: total, Total: total}, entries[0].BestScore)

	reloaded, err := newFileLeaderboardRepository(path, tickingClock())
	require.NoError(t, err)
	persisted, err := reloaded.Rank(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, entries, persisted)
}

func TestFileLeaderboardRoundTrip(t *testing.T) {
	for _, name := range []string{"leaderboard.json", "leaderboard.json.zst"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo, path := newTestFileRepo(t, name)
			_, err := repo.Record(ctx, "alice", "p1", model.Score{Passed: 1, Total: 3})
			require.NoError(t, err)
			_, err = repo.Record(ctx, "bob", "p2", model.Score{Passed: 2, Total: 2})
			require.NoError(t, err)

			want, err := repo.Rank(ctx, "")
			require.NoError(t, err)
			first, err := os.ReadFile(path)
			require.NoError(t, err)

			reloaded, err := newFileLeaderboardRepository(path, tickingClock())
			require.NoError(t, err)
			got, err := reloaded.Rank(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// re-encoding the loaded state reproduces the file byte for byte
			again, err := encodeLeaderboard(reloaded.entries, reloaded.compress)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		})
	}
}

func TestFileLeaderboardFlushFailureReverts(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "store")
	require.NoError(t, os.Mkdir(dir, 0o755))
	repo, err := newFileLeaderboardRepository(filepath.Join(dir, "leaderboard.json"), tickingClock())
	require.NoError(t, err)

	_, err = repo.Record(ctx, "alice", "p1", model.Score{Passed: 1, Total: 2})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))

	updated, err := repo.Record(ctx, "alice", "p1", model.Score{Passed: 2, Total: 2})
	assert.False(t, updated)
	require.ErrorIs(t, err, common.ErrStoreUnavailable)

	_, err = repo.Record(ctx, "bob", "p1", model.Score{Passed: 1, Total: 2})
	require.ErrorIs(t, err, common.ErrStoreUnavailable)

	entries, err := repo.Rank(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.Score{Passed: 1, Total: 2}, entries[0].BestScore)
}

func TestFileLeaderboardRejectsInvalidRecord(t *testing.T) {
	repo, _ := newTestFileRepo(t, "leaderboard.json")
	_, err := repo.Record(context.Background(), "", "p1", model.Score{Passed: 1, Total: 1})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = repo.Record(context.Background(), "alice", "p1", model.Score{Passed: 2, Total: 1})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestFileLeaderboardLoadsLegacyEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	repo, err := NewFileLeaderboardRepository(path)
	require.NoError(t, err)
	entries, err := repo.Rank(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
