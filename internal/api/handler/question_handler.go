package handler

import (
	"code_assessment/internal/app/service"
	"code_assessment/internal/common"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type QuestionHandler struct {
	questionService *service.QuestionService
}

func NewQuestionHandler(qs *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: qs}
}

// RegisterRoutes mounts the question routes; callers add authentication.
func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listQuestions)
	r.Get("/{idOrSlug}", h.getQuestion)
}

func (h *QuestionHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"languages": h.questionService.Languages()})
}

func (h *QuestionHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.ListQuestions(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"total":     len(questions),
	})
}

func (h *QuestionHandler) getQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionService.GetQuestion(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		if errors.Is(err, common.ErrBadRequest) {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid question ID")
			return
		}
		respondError(w, r, err, "Question not found")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"question": q})
}
