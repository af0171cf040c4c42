package api

import (
	"net/http"

	"challenge_grader/internal/api/handler"
	"challenge_grader/internal/api/middleware"
	"challenge_grader/internal/app/service"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxRequestBody bounds submitted source code and inputs.
const maxRequestBody = 1 << 20

type RouterOptions struct {
	Logger *zap.Logger
	// Metrics exposes /metrics when set.
	Metrics prometheus.Gatherer
}

func NewRouter(
	problemService *service.ProblemService,
	gradingService *service.GradingService,
	opts RouterOptions,
) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.MaxBodySize(maxRequestBody))
	// no global timeout: a submission runs every test case, each bounded by the sandbox

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}))
	}

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		problemHandler := handler.NewProblemHandler(problemService)
		v1.Route("/problems", problemHandler.RegisterRoutes)

		submissionHandler := handler.NewSubmissionHandler(gradingService)
		v1.Route("/submissions", submissionHandler.RegisterRoutes)

		leaderboardHandler := handler.NewLeaderboardHandler(gradingService)
		v1.Route("/leaderboard", leaderboardHandler.RegisterRoutes)
	})

	return r
}
