package model

import (
	"fmt"
	"sort"
	"time"
)

// Score is a passed/total pair. Two scores are compared as rationals so 1/2
// and 2/4 are equal and neither replaces the other on the leaderboard.
type Score struct {
	Passed int `json:"passed"`
	Total  int `json:"total"`
}

func (s Score) Value() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// Cmp returns -1, 0 or +1 as s is less than, equal to, or greater than o.
func (s Score) Cmp(o Score) int {
	if s.Total <= 0 || o.Total <= 0 {
		switch a, b := s.Value(), o.Value(); {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	l := int64(s.Passed) * int64(o.Total)
	r := int64(o.Passed) * int64(s.Total)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// Valid reports whether s can be stored: a positive total and 0 <= passed <= total.
func (s Score) Valid() bool {
	return s.Total > 0 && s.Passed >= 0 && s.Passed <= s.Total
}

func (s Score) String() string {
	return fmt.Sprintf("%d/%d", s.Passed, s.Total)
}

type LeaderboardEntry struct {
	Rank      int       `json:"rank,omitempty"`
	UserID    string    `json:"user_id"`
	ProblemID string    `json:"problem_id"`
	BestScore Score     `json:"best_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Less orders entries by best score descending, then earliest update, then key.
func (e LeaderboardEntry) Less(o LeaderboardEntry) bool {
	if c := e.BestScore.Cmp(o.BestScore); c != 0 {
		return c > 0
	}
	if !e.UpdatedAt.Equal(o.UpdatedAt) {
		return e.UpdatedAt.Before(o.UpdatedAt)
	}
	if e.UserID != o.UserID {
		return e.UserID < o.UserID
	}
	return e.ProblemID < o.ProblemID
}

func SortEntries(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Less(entries[j]) })
}
