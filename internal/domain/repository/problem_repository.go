package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"challenge_grader/internal/common"
	"challenge_grader/internal/domain/model"
)

// ProblemRepository is the problem catalog the grader reads test cases from.
type ProblemRepository interface {
	GetProblem(ctx context.Context, id string) (*model.Problem, error)
	// ListProblems returns the ids of problems that have at least one test.
	ListProblems(ctx context.Context) ([]string, error)
}

// pgProblemRepository reads the problems / test_cases tables. Public tests are
// rows with is_hidden = false.
type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	// lookups by uuid or slug both resolve to the slug, the leaderboard key
	var problemID, problemSlug string
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.slug FROM problems p WHERE p.slug = $1 OR p.id::text = $1 LIMIT 1`, id,
	).Scan(&problemID, &problemSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("problem %q: %w", id, common.ErrProblemNotFound)
		}
		return nil, fmt.Errorf("pgProblemRepository.GetProblem: %w", err)
	}

	query := `
        SELECT tc.input, tc.expected_output, tc.is_hidden
        FROM test_cases tc
        WHERE tc.problem_id = $1
        ORDER BY tc.is_hidden, tc.sort_order, tc.created_at`
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetProblem test cases: %w", err)
	}
	defer rows.Close()

	problem := &model.Problem{ID: problemSlug}
	for rows.Next() {
		var tc model.TestCase
		var hidden bool
		if err := rows.Scan(&tc.Input, &tc.ExpectedOutput, &hidden); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetProblem scan: %w", err)
		}
		if hidden {
			problem.HiddenTests = append(problem.HiddenTests, tc)
		} else {
			problem.PublicTests = append(problem.PublicTests, tc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetProblem rows: %w", err)
	}
	if problem.TotalTests() == 0 {
		return nil, fmt.Errorf("problem %q has no test cases: %w", id, common.ErrProblemNotFound)
	}
	return problem, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context) ([]string, error) {
	query := `
        SELECT p.slug FROM problems p
        WHERE EXISTS (SELECT 1 FROM test_cases tc WHERE tc.problem_id = p.id)
        ORDER BY p.slug`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		ids = append(ids, slug)
	}
	return ids, rows.Err()
}
