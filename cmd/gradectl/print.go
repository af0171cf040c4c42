package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"challenge_grader/internal/domain/model"

	"github.com/fatih/color"
)

func tierColor(tier model.CreditTier) func(format string, a ...interface{}) string {
	switch tier {
	case model.CreditFull:
		return color.GreenString
	case model.CreditPartial:
		return color.YellowString
	}
	return color.RedString
}

func printSubmission(w io.Writer, res *model.SubmissionResult) {
	fmt.Fprintf(w, "submission %s\n", res.SubmissionID)
	for _, r := range res.PublicReports {
		verdict := color.GreenString("%s", r.Status)
		if !r.Passed {
			verdict = color.RedString("%s", r.Status)
		}
		fmt.Fprintf(w, "  test %d: %s", r.TestIndex+1, verdict)
		if r.Message != "" {
			fmt.Fprintf(w, " (%s)", r.Message)
		}
		fmt.Fprintln(w)
	}
	if hidden := res.TotalCount - len(res.PublicReports); hidden > 0 {
		fmt.Fprintf(w, "  %d hidden tests\n", hidden)
	}
	fmt.Fprintf(w, "score %s  %s\n", res.Score(), tierColor(res.CreditTier)("%s", res.CreditTier))
	fmt.Fprintf(w, "leaderboard %s\n", res.Leaderboard)
}

func printRun(w io.Writer, res *model.RunResult) {
	if res.Success {
		fmt.Fprint(w, res.Output)
	} else {
		fmt.Fprintln(w, color.RedString("%s", res.Error))
	}
	fmt.Fprintf(w, "(%.1f ms)\n", res.ExecutionTimeMs)
}

func printRankings(w io.Writer, entries []model.LeaderboardEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tPROBLEM\tSCORE\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.Rank, e.UserID, e.ProblemID, e.BestScore, e.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}
