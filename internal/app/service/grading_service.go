package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"challenge_grader/internal/app/judge"
	"challenge_grader/internal/common"
	"challenge_grader/internal/domain/model"
	"challenge_grader/internal/domain/repository"
	"challenge_grader/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner executes one program against one stdin. *sandbox.Sandbox satisfies it.
type Runner interface {
	Run(ctx context.Context, source, input string) (model.ExecutionResult, error)
}

type GradingService struct {
	problemRepo     repository.ProblemRepository
	leaderboardRepo repository.LeaderboardRepository
	runner          Runner
	scorer          *judge.Scorer
	parallelism     int
	metrics         *metrics.Metrics
	log             *zap.Logger
	now             func() time.Time
}

func NewGradingService(
	problemRepo repository.ProblemRepository,
	leaderboardRepo repository.LeaderboardRepository,
	runner Runner,
	scorer *judge.Scorer,
	parallelism int,
	m *metrics.Metrics,
	log *zap.Logger,
) *GradingService {
	if parallelism < 1 {
		parallelism = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GradingService{
		problemRepo:     problemRepo,
		leaderboardRepo: leaderboardRepo,
		runner:          runner,
		scorer:          scorer,
		parallelism:     parallelism,
		metrics:         m,
		log:             log,
		now:             time.Now,
	}
}

type GradeRequest struct {
	ProblemID string `json:"problem_id"`
	UserID    string `json:"user_id"`
	Code      string `json:"code"`
}

func (r GradeRequest) validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return common.Errorf("user_id is required: %w", common.ErrValidation)
	case strings.TrimSpace(r.ProblemID) == "":
		return common.Errorf("problem_id is required: %w", common.ErrValidation)
	case strings.TrimSpace(r.Code) == "":
		return common.Errorf("code is required: %w", common.ErrValidation)
	}
	return nil
}

// Grade runs the code against every test case of the problem, scores it and
// records the score on the leaderboard. When only the leaderboard write fails
// the full result is returned together with the error. Store failures wrap
// common.ErrStoreUnavailable; a rejected record keeps common.ErrValidation.
func (s *GradingService) Grade(ctx context.Context, req GradeRequest) (*model.SubmissionResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	problem, err := s.problemRepo.GetProblem(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}

	submissionID := uuid.NewString()
	log := s.log.With(
		zap.String("submission_id", submissionID),
		zap.String("problem_id", problem.ID),
		zap.String("user_id", req.UserID),
	)

	results := s.execute(ctx, log, problem, req.Code)
	res := s.scorer.Score(problem, results)
	res.SubmissionID = submissionID
	res.UserID = req.UserID
	res.GradedAt = s.now().UTC()
	s.metrics.ObserveSubmission(string(res.CreditTier))

	updated, err := s.leaderboardRepo.Record(ctx, req.UserID, problem.ID, res.Score())
	switch {
	case err != nil:
		res.Leaderboard = model.LeaderboardFailed
		s.metrics.ObserveLeaderboard(string(model.LeaderboardFailed))
		log.Error("leaderboard record failed", zap.Error(err))
		if !errors.Is(err, common.ErrStoreUnavailable) && !errors.Is(err, common.ErrValidation) {
			err = common.Errorf("record leaderboard: %w: %w", common.ErrStoreUnavailable, err)
		}
		return &res, err
	case updated:
		res.Leaderboard = model.LeaderboardUpdated
	default:
		res.Leaderboard = model.LeaderboardUnchanged
	}
	s.metrics.ObserveLeaderboard(string(res.Leaderboard))

	log.Info("submission graded",
		zap.Int("passed", res.PassedCount),
		zap.Int("total", res.TotalCount),
		zap.String("credit", string(res.CreditTier)),
		zap.String("leaderboard", string(res.Leaderboard)),
	)
	return &res, nil
}

// execute runs every test case, at most s.parallelism at a time. results[i]
// always belongs to test case i.
func (s *GradingService) execute(ctx context.Context, log *zap.Logger, p *model.Problem, code string) []model.ExecutionResult {
	results := make([]model.ExecutionResult, p.TotalTests())

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i := range results {
		g.Go(func() error {
			tc, _ := p.Case(i)
			res, err := s.runner.Run(ctx, code, tc.Input)
			if err != nil {
				log.Error("sandbox failure", zap.Int("test_index", i), zap.Error(err))
				res = model.ExecutionResult{Status: model.ExitRuntimeError, Message: "internal sandbox error"}
			}
			s.metrics.ObserveRun(string(res.Status), res.Elapsed)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return results
}

type RunCodeRequest struct {
	ProblemID string  `json:"problem_id,omitempty"`
	Code      string  `json:"code"`
	Input     *string `json:"input,omitempty"`
}

// RunCode executes code once without scoring or recording anything. The input
// is req.Input when given, otherwise the first public test of req.ProblemID.
func (s *GradingService) RunCode(ctx context.Context, req RunCodeRequest) (*model.RunResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, common.Errorf("code is required: %w", common.ErrValidation)
	}

	var input string
	switch {
	case req.Input != nil:
		input = *req.Input
	case req.ProblemID != "":
		problem, err := s.problemRepo.GetProblem(ctx, req.ProblemID)
		if err != nil {
			return nil, err
		}
		if len(problem.PublicTests) > 0 {
			input = problem.PublicTests[0].Input
		}
	}

	res, err := s.runner.Run(ctx, req.Code, input)
	if err != nil {
		return nil, common.Errorf("run code: %w: %w", common.ErrInternalServer, err)
	}
	s.metrics.ObserveRun(string(res.Status), res.Elapsed)

	out := &model.RunResult{
		Success:         res.Status == model.ExitCompleted,
		ExecutionTimeMs: float64(res.Elapsed.Microseconds()) / 1000,
	}
	switch res.Status {
	case model.ExitCompleted:
		out.Output = res.Stdout
	case model.ExitTimedOut:
		out.Error = "Time Limit Exceeded"
	default:
		out.Error = res.Message
	}
	return out, nil
}

// GetRankings returns the ranked leaderboard, optionally for one problem.
func (s *GradingService) GetRankings(ctx context.Context, problemID string) ([]model.LeaderboardEntry, error) {
	entries, err := s.leaderboardRepo.Rank(ctx, problemID)
	if err != nil {
		return nil, err
	}
	AssignRanks(entries)
	return entries, nil
}

// AssignRanks numbers sorted entries 1..n. Equal scores are already ordered
// by who reached them first, so ranks stay distinct.
func AssignRanks(entries []model.LeaderboardEntry) {
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
