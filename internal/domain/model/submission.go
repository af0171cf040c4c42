package model

import "time"

type ExitStatus string

const (
	ExitCompleted    ExitStatus = "completed"
	ExitTimedOut     ExitStatus = "timed_out"
	ExitRuntimeError ExitStatus = "runtime_error"
)

// ExecutionResult is produced once per (submission, test case) run.
type ExecutionResult struct {
	Stdout  string        `json:"stdout"`
	Status  ExitStatus    `json:"exit_status"`
	Message string        `json:"message,omitempty"` // runtime error detail
	Elapsed time.Duration `json:"elapsed"`
}

type CreditTier string

const (
	CreditFull    CreditTier = "full"
	CreditPartial CreditTier = "partial"
	CreditNone    CreditTier = "none"
)

type TestStatus string

const (
	TestAccepted     TestStatus = "Accepted"
	TestWrongAnswer  TestStatus = "WrongAnswer"
	TestTimeLimit    TestStatus = "TimeLimitExceeded"
	TestRuntimeError TestStatus = "RuntimeError"
)

type TestReport struct {
	TestIndex int        `json:"test_index"`
	Passed    bool       `json:"passed"`
	IsHidden  bool       `json:"is_hidden"`
	Status    TestStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
}

type LeaderboardStatus string

const (
	LeaderboardUpdated   LeaderboardStatus = "updated"
	LeaderboardUnchanged LeaderboardStatus = "unchanged"
	LeaderboardFailed    LeaderboardStatus = "failed"
)

type SubmissionResult struct {
	SubmissionID  string            `json:"submission_id"`
	ProblemID     string            `json:"problem_id"`
	UserID        string            `json:"user_id"`
	PassedCount   int               `json:"passed_count"`
	TotalCount    int               `json:"total_count"`
	CreditTier    CreditTier        `json:"credit_tier"`
	PublicReports []TestReport      `json:"public_reports"`
	ErrorDetails  []string          `json:"error_details,omitempty"` // public tests only
	Leaderboard   LeaderboardStatus `json:"leaderboard_status,omitempty"`
	GradedAt      time.Time         `json:"graded_at"`
}

func (r *SubmissionResult) Score() Score {
	return Score{Passed: r.PassedCount, Total: r.TotalCount}
}

// RunResult answers a plain "run my code" request; nothing is scored or recorded.
type RunResult struct {
	Success         bool    `json:"success"`
	Output          string  `json:"output,omitempty"`
	Error           string  `json:"error,omitempty"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
}
