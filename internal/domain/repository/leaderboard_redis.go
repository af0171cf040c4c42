package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"challenge_grader/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// recordScript stores ARGV "passed:total:micros" under field ARGV[1] of the
// problem hash when it beats the current value. Returns 1 when written.
var recordScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if cur then
  local p, t = string.match(cur, '^(%d+):(%d+):')
  if p and tonumber(ARGV[2]) * tonumber(t) <= tonumber(p) * tonumber(ARGV[3]) then
    return 0
  end
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2] .. ':' .. ARGV[3] .. ':' .. ARGV[4])
redis.call('SADD', KEYS[2], ARGV[5])
return 1
`)

// redisLeaderboardRepository keeps one hash per problem (field = user) plus a
// set of problem ids so a full ranking can be read in one transaction.
type redisLeaderboardRepository struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisLeaderboardRepository(rdb *redis.Client, keyPrefix string) LeaderboardRepository {
	return &redisLeaderboardRepository{rdb: rdb, prefix: keyPrefix, now: time.Now}
}

func (r *redisLeaderboardRepository) boardKey(problemID string) string {
	return r.prefix + ":leaderboard:" + problemID
}

func (r *redisLeaderboardRepository) problemsKey() string {
	return r.prefix + ":leaderboard:problems"
}

func (r *redisLeaderboardRepository) Record(ctx context.Context, userID, problemID string, score model.Score) (bool, error) {
	if err := validateRecord(userID, problemID, score); err != nil {
		return false, err
	}
	micros := r.now().UTC().Truncate(time.Microsecond).UnixMicro()

	n, err := recordScript.Run(ctx, r.rdb,
		[]string{r.boardKey(problemID), r.problemsKey()},
		userID, score.Passed, score.Total, micros, problemID,
	).Int()
	if err != nil {
		return false, storeUnavailable("redisLeaderboardRepository.Record", err)
	}
	return n == 1, nil
}

func (r *redisLeaderboardRepository) Rank(ctx context.Context, problemID string) ([]model.LeaderboardEntry, error) {
	problems := []string{problemID}
	if problemID == "" {
		var err error
		problems, err = r.rdb.SMembers(ctx, r.problemsKey()).Result()
		if err != nil {
			return nil, storeUnavailable("redisLeaderboardRepository.Rank", err)
		}
	}
	entries := []model.LeaderboardEntry{}
	if len(problems) == 0 {
		return entries, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(problems))
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, p := range problems {
			cmds[i] = pipe.HGetAll(ctx, r.boardKey(p))
		}
		return nil
	})
	if err != nil {
		return nil, storeUnavailable("redisLeaderboardRepository.Rank", err)
	}

	for i, cmd := range cmds {
		for user, raw := range cmd.Val() {
			e, err := parseRedisEntry(user, problems[i], raw)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}
	model.SortEntries(entries)
	return entries, nil
}

func (r *redisLeaderboardRepository) Close() error {
	return r.rdb.Close()
}

func parseRedisEntry(userID, problemID, raw string) (model.LeaderboardEntry, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return model.LeaderboardEntry{}, fmt.Errorf("malformed leaderboard value %q for %s/%s", raw, problemID, userID)
	}
	passed, err1 := strconv.Atoi(parts[0])
	total, err2 := strconv.Atoi(parts[1])
	micros, err3 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return model.LeaderboardEntry{}, fmt.Errorf("malformed leaderboard value %q for %s/%s", raw, problemID, userID)
	}
	return model.LeaderboardEntry{
		UserID:    userID,
		ProblemID: problemID,
		BestScore: model.Score{Passed: passed, Total: total},
		UpdatedAt: time.UnixMicro(micros).UTC(),
	}, nil
}
