package handler

import (
	"code_assessment/internal/app/service"
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CodeHandler serves run, submit and the asynchronous grading jobs.
type CodeHandler struct {
	gradingService *service.GradingService
	jobService     *service.GradingJobService
}

func NewCodeHandler(gs *service.GradingService, js *service.GradingJobService) *CodeHandler {
	return &CodeHandler{gradingService: gs, jobService: js}
}

func (h *CodeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/run", h.runCode)
	r.Post("/submit", h.submitCode)
	r.Post("/submit/async", h.submitCodeAsync)
}

func (h *CodeHandler) RegisterJobRoutes(r chi.Router) {
	r.Get("/{jobID}", h.getJob)
}

// decodeCodeRequest reads and checks a run/submit body, writing the 400
// itself when the body is unusable.
func decodeCodeRequest(w http.ResponseWriter, r *http.Request) (service.CodeRequest, model.Language, bool) {
	var req service.CodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.QuestionID <= 0 || req.Code == "" || req.Language == "" {
		common.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return req, "", false
	}
	lang, ok := model.ParseLanguage(req.Language)
	if !ok {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid language")
		return req, "", false
	}
	return req, lang, true
}

func (h *CodeHandler) runCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, lang, ok := decodeCodeRequest(w, r)
	if !ok {
		return
	}

	res, err := h.gradingService.RunSubmission(r.Context(), userID, req.QuestionID, req.Code, lang)
	if err != nil {
		respondCodeError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *CodeHandler) submitCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, lang, ok := decodeCodeRequest(w, r)
	if !ok {
		return
	}

	res, err := h.gradingService.SubmitSubmission(r.Context(), userID, req.QuestionID, req.Code, lang)
	if err != nil {
		respondCodeError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*model.GradingResult
	}{Success: true, GradingResult: res})
}

func (h *CodeHandler) submitCodeAsync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, lang, ok := decodeCodeRequest(w, r)
	if !ok {
		return
	}

	job, err := h.jobService.Enqueue(r.Context(), userID, req.QuestionID, req.Code, lang)
	if err != nil {
		respondCodeError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, map[string]string{"jobId": job.ID})
}

func (h *CodeHandler) getJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	job, err := h.jobService.Get(r.Context(), userID, chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, r, err, "Job not found")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"job": job})
}

func respondCodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrValidation) {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid language")
		return
	}
	respondError(w, r, err, "Question not found")
}
