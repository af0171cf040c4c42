package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"challenge_grader/internal/domain/model"
)

const leaderboardSchema = `
CREATE TABLE IF NOT EXISTS leaderboard_entries (
    user_id     TEXT        NOT NULL,
    problem_id  TEXT        NOT NULL,
    best_passed INTEGER     NOT NULL,
    best_total  INTEGER     NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, problem_id)
)`

// The conflict branch only fires when the new ratio is strictly greater, so a
// missing RETURNING row means the stored score was kept.
const upsertBestScore = `
INSERT INTO leaderboard_entries (user_id, problem_id, best_passed, best_total, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, problem_id) DO UPDATE
SET best_passed = EXCLUDED.best_passed,
    best_total  = EXCLUDED.best_total,
    updated_at  = EXCLUDED.updated_at
WHERE EXCLUDED.best_passed::bigint * leaderboard_entries.best_total
    > leaderboard_entries.best_passed::bigint * EXCLUDED.best_total
RETURNING user_id`

type pgLeaderboardRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPgLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &pgLeaderboardRepository{db: db, now: time.Now}
}

// EnsureLeaderboardSchema creates the leaderboard table when it is missing.
func EnsureLeaderboardSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, leaderboardSchema); err != nil {
		return storeUnavailable("create leaderboard schema", err)
	}
	return nil
}

func (r *pgLeaderboardRepository) Record(ctx context.Context, userID, problemID string, score model.Score) (bool, error) {
	if err := validateRecord(userID, problemID, score); err != nil {
		return false, err
	}
	updatedAt := r.now().UTC().Truncate(time.Microsecond)

	var returned string
	err := r.db.QueryRowContext(ctx, upsertBestScore,
		userID, problemID, score.Passed, score.Total, updatedAt,
	).Scan(&returned)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeUnavailable("pgLeaderboardRepository.Record", err)
	}
	return true, nil
}

func (r *pgLeaderboardRepository) Rank(ctx context.Context, problemID string) ([]model.LeaderboardEntry, error) {
	query := `
        SELECT user_id, problem_id, best_passed, best_total, updated_at
        FROM leaderboard_entries
        WHERE $1 = '' OR problem_id = $1
        ORDER BY best_passed::float8 / best_total DESC, updated_at, user_id, problem_id`
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, storeUnavailable("pgLeaderboardRepository.Rank", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.ProblemID, &e.BestScore.Passed, &e.BestScore.Total, &e.UpdatedAt); err != nil {
			return nil, storeUnavailable("pgLeaderboardRepository.Rank scan", err)
		}
		e.UpdatedAt = e.UpdatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeUnavailable("pgLeaderboardRepository.Rank rows", err)
	}
	// float ordering can tie distinct ratios; settle with exact comparison
	model.SortEntries(entries)
	return entries, nil
}

func (r *pgLeaderboardRepository) Close() error { return nil }
