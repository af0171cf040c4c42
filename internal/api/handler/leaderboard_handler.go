package handler

import (
	"net/http"

	"challenge_grader/internal/app/service"
	"challenge_grader/internal/common"

	"github.com/go-chi/chi/v5"
)

type LeaderboardHandler struct {
	gradingService *service.GradingService
}

func NewLeaderboardHandler(gs *service.GradingService) *LeaderboardHandler {
	return &LeaderboardHandler{gradingService: gs}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.getRankings) // GET /api/v1/leaderboard?problem_id=power-of-two
}

func (h *LeaderboardHandler) getRankings(w http.ResponseWriter, r *http.Request) {
	problemID := r.URL.Query().Get("problem_id")
	entries, err := h.gradingService.GetRankings(r.Context(), problemID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"problem_id": problemID,
		"entries":    entries,
	})
}
