// gradectl grades submissions and reads the leaderboard from the command line,
// using the same configuration and stores as the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"challenge_grader/internal/app"
	"challenge_grader/internal/app/service"
	"challenge_grader/internal/common"
	"challenge_grader/internal/platform/config"
	"challenge_grader/internal/platform/logger"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "gradectl",
		Usage: "grade code against problem test cases and inspect the leaderboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			{
				Name:  "grade",
				Usage: "grade a source file and record the score",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "problem", Aliases: []string{"p"}, Required: true},
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "source file, - for stdin"},
				},
				Action: withApp(gradeAction),
			},
			{
				Name:  "run",
				Usage: "run a source file once without grading",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "problem", Aliases: []string{"p"}, Usage: "take input from the first public test"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "source file, - for stdin"},
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "stdin for the program"},
				},
				Action: withApp(runAction),
			},
			{
				Name:   "rank",
				Usage:  "print the leaderboard",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "problem", Aliases: []string{"p"}}},
				Action: withApp(rankAction),
			},
			{
				Name:   "problems",
				Usage:  "list problems that have test cases",
				Action: withApp(problemsAction),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

type appAction func(ctx context.Context, cmd *cli.Command, a *app.App) error

func withApp(action appAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := config.Load()
		zlog, err := logger.New(logger.Config{Level: cmd.String("log-level"), Format: "console"})
		if err != nil {
			return err
		}
		defer zlog.Sync()

		cfg.MetricsEnabled = false
		a, err := app.New(ctx, cfg, zlog)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				zlog.Warn("close stores", zap.Error(err))
			}
		}()
		return action(ctx, cmd, a)
	}
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func gradeAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	code, err := readSource(cmd.String("file"))
	if err != nil {
		return err
	}
	res, err := a.Grading.Grade(ctx, service.GradeRequest{
		ProblemID: cmd.String("problem"),
		UserID:    cmd.String("user"),
		Code:      code,
	})
	if res == nil {
		return err
	}
	printSubmission(cmd.Root().Writer, res)
	if errors.Is(err, common.ErrStoreUnavailable) {
		return fmt.Errorf("score not recorded, grade again to retry: %w", err)
	}
	return err
}

func runAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	code, err := readSource(cmd.String("file"))
	if err != nil {
		return err
	}
	req := service.RunCodeRequest{ProblemID: cmd.String("problem"), Code: code}
	if cmd.IsSet("input") {
		input := cmd.String("input")
		req.Input = &input
	}
	res, err := a.Grading.RunCode(ctx, req)
	if err != nil {
		return err
	}
	printRun(cmd.Root().Writer, res)
	return nil
}

func rankAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	entries, err := a.Grading.GetRankings(ctx, cmd.String("problem"))
	if err != nil {
		return err
	}
	printRankings(cmd.Root().Writer, entries)
	return nil
}

func problemsAction(ctx context.Context, cmd *cli.Command, a *app.App) error {
	ids, err := a.Problems.ListProblems(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.Root().Writer, id)
	}
	return nil
}
