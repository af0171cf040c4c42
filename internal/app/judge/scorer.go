package judge

import (
	"fmt"
	"unicode/utf8"

	"challenge_grader/internal/domain/model"
)

const (
	maxErrorDetails = 5
	maxMessageLen   = 500
)

type Scorer struct {
	cmp Comparator
}

func NewScorer(cmp Comparator) *Scorer {
	if cmp == nil {
		cmp = TrailingNewline{}
	}
	return &Scorer{cmp: cmp}
}

// Score judges results[i] against the i-th test case of p (public first, then
// hidden). A missing result counts as a failed case. Only public reports and
// public error details are kept in the returned result.
func (s *Scorer) Score(p *model.Problem, results []model.ExecutionResult) model.SubmissionResult {
	total := p.TotalTests()
	out := model.SubmissionResult{
		ProblemID:     p.ID,
		TotalCount:    total,
		PublicReports: make([]model.TestReport, 0, len(p.PublicTests)),
	}

	for i := 0; i < total; i++ {
		tc, hidden := p.Case(i)
		var res model.ExecutionResult
		if i < len(results) {
			res = results[i]
		} else {
			res = model.ExecutionResult{Status: model.ExitRuntimeError, Message: "not executed"}
		}

		report := s.judgeOne(i, tc, res)
		report.IsHidden = hidden
		if report.Passed {
			out.PassedCount++
		}
		if hidden {
			continue
		}
		report.Message = truncate(report.Message)
		out.PublicReports = append(out.PublicReports, report)
		if !report.Passed && len(out.ErrorDetails) < maxErrorDetails {
			out.ErrorDetails = append(out.ErrorDetails, fmt.Sprintf("Test %d: %s", i+1, report.Message))
		}
	}

	out.CreditTier = Tier(out.PassedCount, out.TotalCount)
	return out
}

func (s *Scorer) judgeOne(i int, tc model.TestCase, res model.ExecutionResult) model.TestReport {
	report := model.TestReport{TestIndex: i}
	switch res.Status {
	case model.ExitTimedOut:
		report.Status = model.TestTimeLimit
		report.Message = res.Message
	case model.ExitRuntimeError:
		report.Status = model.TestRuntimeError
		report.Message = "Runtime error - " + res.Message
	default:
		if s.cmp.Judge(res.Stdout, tc.ExpectedOutput) {
			report.Status = model.TestAccepted
			report.Passed = true
		} else {
			report.Status = model.TestWrongAnswer
			report.Message = fmt.Sprintf("Expected %q, got %q", tc.ExpectedOutput, res.Stdout)
		}
	}
	return report
}

// Tier buckets a passed/total count. A problem without tests earns nothing.
func Tier(passed, total int) model.CreditTier {
	switch {
	case passed == 0:
		return model.CreditNone
	case passed == total:
		return model.CreditFull
	}
	return model.CreditPartial
}

// truncate cuts s to at most maxMessageLen bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
