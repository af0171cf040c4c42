package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"challenge_grader/internal/domain/model"

	"github.com/klauspost/compress/zstd"
)

type entryKey struct {
	user, problem string
}

// fileRecord is the persisted form of one entry.
type fileRecord struct {
	UserID    string      `json:"user_id"`
	ProblemID string      `json:"problem_id"`
	BestScore model.Score `json:"best_score"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// fileLeaderboardRepository holds the whole leaderboard in memory and rewrites
// the file after every accepted record. A path ending in .zst is stored zstd
// compressed.
type fileLeaderboardRepository struct {
	mu       sync.RWMutex
	path     string
	compress bool
	entries  map[entryKey]model.LeaderboardEntry
	now      func() time.Time
}

func NewFileLeaderboardRepository(path string) (LeaderboardRepository, error) {
	return newFileLeaderboardRepository(path, time.Now)
}

func newFileLeaderboardRepository(path string, now func() time.Time) (*fileLeaderboardRepository, error) {
	r := &fileLeaderboardRepository{
		path:     path,
		compress: strings.HasSuffix(path, ".zst"),
		entries:  make(map[entryKey]model.LeaderboardEntry),
		now:      now,
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileLeaderboardRepository) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return storeUnavailable("read leaderboard", err)
	}
	records, err := decodeLeaderboard(data, r.compress)
	if err != nil {
		return fmt.Errorf("decode leaderboard %s: %w", r.path, err)
	}
	for _, rec := range records {
		k := entryKey{rec.UserID, rec.ProblemID}
		if prev, ok := r.entries[k]; ok && prev.BestScore.Cmp(rec.BestScore) >= 0 {
			continue
		}
		r.entries[k] = model.LeaderboardEntry{
			UserID:    rec.UserID,
			ProblemID: rec.ProblemID,
			BestScore: rec.BestScore,
			UpdatedAt: rec.UpdatedAt.UTC(),
		}
	}
	return nil
}

func (r *fileLeaderboardRepository) Record(ctx context.Context, userID, problemID string, score model.Score) (bool, error) {
	if err := validateRecord(userID, problemID, score); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := entryKey{userID, problemID}
	prev, exists := r.entries[k]
	if exists && score.Cmp(prev.BestScore) <= 0 {
		return false, nil
	}

	r.entries[k] = model.LeaderboardEntry{
		UserID:    userID,
		ProblemID: problemID,
		BestScore: score,
		UpdatedAt: r.now().UTC().Truncate(time.Microsecond),
	}
	if err := r.flushLocked(); err != nil {
		if exists {
			r.entries[k] = prev
		} else {
			delete(r.entries, k)
		}
		return false, storeUnavailable("flush leaderboard", err)
	}
	return true, nil
}

func (r *fileLeaderboardRepository) Rank(ctx context.Context, problemID string) ([]model.LeaderboardEntry, error) {
	r.mu.RLock()
	entries := make([]model.LeaderboardEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if problemID == "" || e.ProblemID == problemID {
			entries = append(entries, e)
		}
	}
	r.mu.RUnlock()

	model.SortEntries(entries)
	return entries, nil
}

func (r *fileLeaderboardRepository) Close() error { return nil }

// flushLocked replaces the file atomically: write temp, fsync, rename.
func (r *fileLeaderboardRepository) flushLocked() error {
	data, err := encodeLeaderboard(r.entries, r.compress)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, r.path)
}

func encodeLeaderboard(entries map[entryKey]model.LeaderboardEntry, compress bool) ([]byte, error) {
	records := make([]fileRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, fileRecord{
			UserID:    e.UserID,
			ProblemID: e.ProblemID,
			BestScore: e.BestScore,
			UpdatedAt: e.UpdatedAt,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ProblemID != records[j].ProblemID {
			return records[i].ProblemID < records[j].ProblemID
		}
		return records[i].UserID < records[j].UserID
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	if !compress {
		return data, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decodeLeaderboard(data []byte, compressed bool) ([]fileRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if compressed {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return nil, err
		}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var records []fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
