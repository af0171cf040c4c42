package model

type TestCase struct {
	Input          string `json:"input" toml:"input"`
	ExpectedOutput string `json:"expected_output" toml:"expected_output"`
}

// Problem is the decoded test-case set of one challenge. It is loaded once per
// grading request and never mutated afterwards.
type Problem struct {
	ID          string     `json:"problem_id" toml:"-"`
	PublicTests []TestCase `json:"public_tests" toml:"public_tests"`
	HiddenTests []TestCase `json:"hidden_tests" toml:"hidden_tests"`
}

func (p *Problem) TotalTests() int {
	return len(p.PublicTests) + len(p.HiddenTests)
}

// Case returns the i-th test case in grading order (public first, then hidden)
// and whether it belongs to the hidden subset.
func (p *Problem) Case(i int) (TestCase, bool) {
	if i < len(p.PublicTests) {
		return p.PublicTests[i], false
	}
	return p.HiddenTests[i-len(p.PublicTests)], true
}

// ProblemDetails is the public view of a problem: hidden tests are only counted.
type ProblemDetails struct {
	ProblemID        string     `json:"problem_id"`
	PublicTests      []TestCase `json:"public_tests"`
	HiddenTestsCount int        `json:"hidden_tests_count"`
	TotalTests       int        `json:"total_tests"`
}
