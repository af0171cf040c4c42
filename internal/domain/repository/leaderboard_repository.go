package repository

import (
	"context"
	"fmt"

	"challenge_grader/internal/common"
	"challenge_grader/internal/domain/model"
)

// LeaderboardRepository keeps each user's best score per problem.
//
// Record is an atomic max-wins update: the stored entry for (userID, problemID)
// is created on first record and replaced only by a strictly greater score.
// Rank returns a consistent snapshot sorted by best score descending, ties
// broken by the earliest UpdatedAt. An empty problemID ranks every problem.
type LeaderboardRepository interface {
	Record(ctx context.Context, userID, problemID string, score model.Score) (bool, error)
	Rank(ctx context.Context, problemID string) ([]model.LeaderboardEntry, error)
	Close() error
}

func validateRecord(userID, problemID string, score model.Score) error {
	if userID == "" || problemID == "" {
		return fmt.Errorf("leaderboard key (%q, %q): %w", userID, problemID, common.ErrValidation)
	}
	if !score.Valid() {
		return fmt.Errorf("leaderboard score %s: %w", score, common.ErrValidation)
	}
	return nil
}

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}
