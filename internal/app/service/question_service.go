package service

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"context"
	"strconv"

	"github.com/gosimple/slug"
)

type QuestionService struct {
	questionRepo repository.QuestionRepository
}

func NewQuestionService(questionRepo repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// ListQuestions returns every question with hidden test cases removed.
func (s *QuestionService) ListQuestions(ctx context.Context) ([]*model.Question, error) {
	questions, err := s.questionRepo.List(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list questions: %w", err)
	}
	public := make([]*model.Question, 0, len(questions))
	for _, q := range questions {
		public = append(public, q.Public())
	}
	return public, nil
}

// GetQuestion looks a question up by numeric id or by slug. The result
// carries visible test cases only.
func (s *QuestionService) GetQuestion(ctx context.Context, idOrSlug string) (*model.Question, error) {
	var (
		q   *model.Question
		err error
	)
	if id, convErr := strconv.Atoi(idOrSlug); convErr == nil {
		if id <= 0 {
			return nil, common.Errorf("question id %d: %w", id, common.ErrBadRequest)
		}
		q, err = s.questionRepo.FindByID(ctx, id)
	} else {
		if !slug.IsSlug(idOrSlug) {
			return nil, common.Errorf("question %q: %w", idOrSlug, common.ErrBadRequest)
		}
		q, err = s.questionRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	return q.Public(), nil
}

func (s *QuestionService) Languages() []model.LanguageInfo {
	return append([]model.LanguageInfo(nil), model.SupportedLanguages...)
}

func (s *QuestionService) Count() int {
	return s.questionRepo.Count()
}
