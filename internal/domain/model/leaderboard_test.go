package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreCmp(t *testing.T) {
	tests := []struct {
		a, b Score
		want int
	}{
		{Score{1, 2}, Score{2, 4}, 0},
		{Score{1, 2}, Score{2, 2}, -1},
		{Score{3, 3}, Score{1, 3}, 1},
		{Score{0, 5}, Score{0, 1}, 0},
		{Score{1, 3}, Score{1, 2}, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Cmp(tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestScoreValid(t *testing.T) {
	assert.True(t, Score{0, 1}.Valid())
	assert.True(t, Score{2, 2}.Valid())
	assert.False(t, Score{0, 0}.Valid())
	assert.False(t, Score{3, 2}.Valid())
	assert.False(t, Score{-1, 2}.Valid())
}

func TestSortEntries(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []LeaderboardEntry{
		{UserID: "late", BestScore: Score{1, 1}, UpdatedAt: t0.Add(time.Hour)},
		{UserID: "low", BestScore: Score{1, 2}, UpdatedAt: t0},
		{UserID: "early", BestScore: Score{2, 2}, UpdatedAt: t0},
	}
	SortEntries(entries)
	assert.Equal(t, "early", entries[0].UserID)
	assert.Equal(t, "late", entries[1].UserID)
	assert.Equal(t, "low", entries[2].UserID)
}
