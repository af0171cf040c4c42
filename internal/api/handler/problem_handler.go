package handler

import (
	"net/http"

	"challenge_grader/internal/app/service"
	"challenge_grader/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)          // GET /api/v1/problems
	r.Get("/{problemID}", h.getProblem) // GET /api/v1/problems/power-of-two
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	ids, err := h.problemService.ListProblems(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"problems": ids})
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	details, err := h.problemService.GetProblemDetails(r.Context(), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, details)
}
