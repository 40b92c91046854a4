package handler

import (
	"code_assessment/internal/app/service"
	"code_assessment/internal/common"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ProgressHandler serves progress, results, submission history and the
// leaderboard.
type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(ps *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: ps}
}

func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/progress", h.getProgress)
	r.Put("/progress/time", h.updateTimeRemaining)
	r.Get("/results", h.getResults)
	r.Get("/submissions", h.listSubmissions)
	r.Get("/submissions/{submissionID}", h.getSubmission)
	r.Get("/leaderboard", h.getLeaderboard)
}

func (h *ProgressHandler) getProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := h.progressService.GetProgress(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"progress": p})
}

func (h *ProgressHandler) updateTimeRemaining(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		TimeRemaining *int `json:"timeRemaining"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TimeRemaining == nil {
		common.RespondWithError(w, http.StatusBadRequest, "timeRemaining is required")
		return
	}

	p, err := h.progressService.UpdateTimeRemaining(r.Context(), userID, *req.TimeRemaining)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"progress": p})
}

func (h *ProgressHandler) getResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	res, err := h.progressService.Results(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"results": res})
}

func (h *ProgressHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	subs, err := h.progressService.ListSubmissions(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (h *ProgressHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	sub, err := h.progressService.GetSubmission(r.Context(), userID, chi.URLParam(r, "submissionID"))
	if err != nil {
		respondError(w, r, err, "Submission not found")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"submission": sub})
}

func (h *ProgressHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.progressService.Leaderboard(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
