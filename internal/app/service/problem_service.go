package service

import (
	"context"

	"challenge_grader/internal/domain/model"
	"challenge_grader/internal/domain/repository"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
}

func NewProblemService(problemRepo repository.ProblemRepository) *ProblemService {
	return &ProblemService{problemRepo: problemRepo}
}

func (s *ProblemService) ListProblems(ctx context.Context) ([]string, error) {
	return s.problemRepo.ListProblems(ctx)
}

// GetProblemDetails exposes public tests in full and hidden tests only as a count.
func (s *ProblemService) GetProblemDetails(ctx context.Context, id string) (*model.ProblemDetails, error) {
	p, err := s.problemRepo.GetProblem(ctx, id)
	if err != nil {
		return nil, err
	}
	public := p.PublicTests
	if public == nil {
		public = []model.TestCase{}
	}
	return &model.ProblemDetails{
		ProblemID:        p.ID,
		PublicTests:      public,
		HiddenTestsCount: len(p.HiddenTests),
		TotalTests:       p.TotalTests(),
	}, nil
}
