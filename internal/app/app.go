// Package app assembles the grading services from configuration. The HTTP
// server and gradectl share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"challenge_grader/internal/app/judge"
	"challenge_grader/internal/app/sandbox"
	"challenge_grader/internal/app/service"
	"challenge_grader/internal/domain/repository"
	"challenge_grader/internal/platform/config"
	"challenge_grader/internal/platform/database"
	"challenge_grader/internal/platform/kv"
	"challenge_grader/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type App struct {
	Problems *service.ProblemService
	Grading  *service.GradingService
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *App, err error) {
	a := &App{}
	// error returns nil out the result, so close through the local
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(a.Registry)
	}

	var db *sql.DB
	connectDB := func() (*sql.DB, error) {
		if db != nil {
			return db, nil
		}
		conn, err := database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		db = conn
		a.closers = append(a.closers, db.Close)
		log.Info("database connected", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
		return db, nil
	}

	var problems repository.ProblemRepository
	switch cfg.ProblemsSource {
	case "dir":
		problems = repository.NewDirProblemRepository(cfg.ProblemsDir)
	case "postgres":
		conn, err := connectDB()
		if err != nil {
			return nil, err
		}
		problems = repository.NewPgProblemRepository(conn)
	default:
		return nil, fmt.Errorf("unknown PROBLEMS_SOURCE %q", cfg.ProblemsSource)
	}

	var leaderboard repository.LeaderboardRepository
	switch cfg.LeaderboardBackend {
	case "file":
		leaderboard, err = repository.NewFileLeaderboardRepository(cfg.LeaderboardFile)
	case "postgres":
		var conn *sql.DB
		if conn, err = connectDB(); err == nil {
			if err = repository.EnsureLeaderboardSchema(ctx, conn); err == nil {
				leaderboard = repository.NewPgLeaderboardRepository(conn)
			}
		}
	case "redis":
		rdb, rerr := kv.Connect(ctx, kv.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err = rerr; err == nil {
			leaderboard = repository.NewRedisLeaderboardRepository(rdb, cfg.RedisKeyPrefix)
			log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
		}
	default:
		err = fmt.Errorf("unknown LEADERBOARD_BACKEND %q", cfg.LeaderboardBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	a.closers = append(a.closers, leaderboard.Close)

	command, err := sandbox.ParseCommand(cfg.SandboxCommand)
	if err != nil {
		return nil, err
	}
	sb, err := sandbox.New(sandbox.Options{
		Command:      command,
		SourceSuffix: cfg.SandboxSourceSuffix,
		Entrypoint:   cfg.SandboxEntrypoint,
		Timeout:      cfg.SandboxTimeout,
		OutputLimit:  cfg.SandboxOutputLimitKb * 1024,
	}, log)
	if err != nil {
		return nil, err
	}

	cmp, err := judge.NewComparator(cfg.CompareMode)
	if err != nil {
		return nil, err
	}

	a.Problems = service.NewProblemService(problems)
	a.Grading = service.NewGradingService(problems, leaderboard, sb, judge.NewScorer(cmp),
		cfg.GradeParallelism, m, log.Named("grading"))

	log.Info("grader ready",
		zap.String("problems", cfg.ProblemsSource),
		zap.String("leaderboard", cfg.LeaderboardBackend),
		zap.Strings("sandbox_command", command),
		zap.Duration("timeout", sb.Timeout()),
		zap.String("compare_mode", cfg.CompareMode),
	)
	return a, nil
}

// Close releases stores and connections in reverse order of creation.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
