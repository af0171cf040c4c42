package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"challenge_grader/internal/app/service"
	"challenge_grader/internal/common"
	"challenge_grader/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	gradingService *service.GradingService
}

func NewSubmissionHandler(gs *service.GradingService) *SubmissionHandler {
	return &SubmissionHandler{gradingService: gs}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.submit)     // POST /api/v1/submissions
	r.Post("/run", h.runCode) // POST /api/v1/submissions/run
}

// submissionResponse flags a result whose leaderboard write failed so the
// client knows it may resubmit.
type submissionResponse struct {
	*model.SubmissionResult
	LeaderboardRetriable bool `json:"leaderboard_retriable,omitempty"`
}

func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req service.GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithErr(w, common.Errorf("invalid request: %v: %w", err, common.ErrBadRequest))
		return
	}

	// a result with an error means grading finished but the leaderboard write did not
	result, err := h.gradingService.Grade(r.Context(), req)
	if result == nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissionResponse{
		SubmissionResult:     result,
		LeaderboardRetriable: errors.Is(err, common.ErrStoreUnavailable),
	})
}

func (h *SubmissionHandler) runCode(w http.ResponseWriter, r *http.Request) {
	var req service.RunCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithErr(w, common.Errorf("invalid request: %v: %w", err, common.ErrBadRequest))
		return
	}

	result, err := h.gradingService.RunCode(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}
