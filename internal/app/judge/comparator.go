// Package judge decides whether a run passed and aggregates runs into a score.
package judge

import (
	"bufio"
	"fmt"
	"strings"
	"unicode"
)

const (
	ModeTrailingNewline = "trailing-newline"
	ModeLineTrim        = "line-trim"
	ModeIgnoreSpaces    = "ignore-spaces"
)

type Comparator interface {
	Judge(actual, expected string) bool
}

// NewComparator returns the comparator for a configured mode name.
func NewComparator(mode string) (Comparator, error) {
	switch mode {
	case "", ModeTrailingNewline:
		return TrailingNewline{}, nil
	case ModeLineTrim:
		return LineTrim{}, nil
	case ModeIgnoreSpaces:
		return IgnoreSpaces{}, nil
	}
	return nil, fmt.Errorf("unknown compare mode %q", mode)
}

// TrailingNewline ignores line breaks at the end of the output. Everything
// else, trailing spaces included, must match byte for byte.
type TrailingNewline struct{}

func (TrailingNewline) Judge(actual, expected string) bool {
	return strings.TrimRight(actual, "\r\n") == strings.TrimRight(expected, "\r\n")
}

// LineTrim ignores whitespace at the end of every line and blank lines at the
// end of the output.
type LineTrim struct{}

func (LineTrim) Judge(actual, expected string) bool {
	act, exp := trimmedLines(actual), trimmedLines(expected)
	if len(act) != len(exp) {
		return false
	}
	for i := range act {
		if act[i] != exp[i] {
			return false
		}
	}
	return true
}

func trimmedLines(s string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), len(s)+1)
	for sc.Scan() {
		lines = append(lines, strings.TrimRightFunc(sc.Text(), unicode.IsSpace))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// IgnoreSpaces trims both outputs and drops every space character before
// comparing, so "[1, 2]" equals "[1,2]".
type IgnoreSpaces struct{}

func (IgnoreSpaces) Judge(actual, expected string) bool {
	squash := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	}
	return squash(actual) == squash(expected)
}
