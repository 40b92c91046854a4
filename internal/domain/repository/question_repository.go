package repository

import (
	"cmp"
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gosimple/slug"
)

// QuestionRepository is a read-only view over the question catalog.
// Every returned value is a copy.
type QuestionRepository interface {
	FindByID(ctx context.Context, id int) (*model.Question, error)
	FindBySlug(ctx context.Context, slug string) (*model.Question, error)
	List(ctx context.Context) ([]*model.Question, error)
	VisibleTestCases(ctx context.Context, id int) ([]model.TestCase, error)
	AllTestCases(ctx context.Context, id int) ([]model.TestCase, error)
	Count() int
	MaxTotalScore() int
}

type catalogQuestionRepository struct {
	ordered  []*model.Question
	byID     map[int]*model.Question
	bySlug   map[string]*model.Question
	maxScore int
}

// NewCatalogQuestionRepository validates and indexes a fixed question set.
// Questions are kept in ascending id order.
func NewCatalogQuestionRepository(questions []model.Question) (QuestionRepository, error) {
	r := &catalogQuestionRepository{
		byID:   make(map[int]*model.Question, len(questions)),
		bySlug: make(map[string]*model.Question, len(questions)),
	}

	var errs []error
	for i := range questions {
		q := questions[i].Clone()
		if err := validateQuestion(q); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.byID[q.ID]; dup {
			errs = append(errs, fmt.Errorf("question %d: duplicate id", q.ID))
			continue
		}
		q.Slug = slug.Make(q.Title)
		if other, dup := r.bySlug[q.Slug]; dup {
			errs = append(errs, fmt.Errorf("question %d: slug %q already used by question %d", q.ID, q.Slug, other.ID))
			continue
		}
		r.byID[q.ID] = q
		r.bySlug[q.Slug] = q
		r.ordered = append(r.ordered, q)
		r.maxScore += q.Points
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid question catalog: %w", errors.Join(errs...))
	}

	slices.SortFunc(r.ordered, func(a, b *model.Question) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return r, nil
}

func validateQuestion(q *model.Question) error {
	switch {
	case q.ID <= 0:
		return fmt.Errorf("question %d: id must be positive", q.ID)
	case q.Title == "":
		return fmt.Errorf("question %d: title is required", q.ID)
	case !q.Difficulty.Valid():
		return fmt.Errorf("question %d: unknown difficulty %q", q.ID, q.Difficulty)
	case q.Points <= 0:
		return fmt.Errorf("question %d: points must be positive", q.ID)
	case len(q.TestCases) == 0:
		return fmt.Errorf("question %d: no test cases", q.ID)
	case len(model.VisibleTestCases(q.TestCases)) == 0:
		return fmt.Errorf("question %d: at least one test case must be visible", q.ID)
	}
	return nil
}

func (r *catalogQuestionRepository) find(id int) (*model.Question, error) {
	q, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("question %d: %w", id, common.ErrNotFound)
	}
	return q, nil
}

func (r *catalogQuestionRepository) FindByID(ctx context.Context, id int) (*model.Question, error) {
	q, err := r.find(id)
	if err != nil {
		return nil, err
	}
	return q.Clone(), nil
}

func (r *catalogQuestionRepository) FindBySlug(ctx context.Context, s string) (*model.Question, error) {
	q, ok := r.bySlug[s]
	if !ok {
		return nil, fmt.Errorf("question %q: %w", s, common.ErrNotFound)
	}
	return q.Clone(), nil
}

func (r *catalogQuestionRepository) List(ctx context.Context) ([]*model.Question, error) {
	out := make([]*model.Question, len(r.ordered))
	for i, q := range r.ordered {
		out[i] = q.Clone()
	}
	return out, nil
}

func (r *catalogQuestionRepository) VisibleTestCases(ctx context.Context, id int) ([]model.TestCase, error) {
	q, err := r.find(id)
	if err != nil {
		return nil, err
	}
	return model.VisibleTestCases(q.TestCases), nil
}

func (r *catalogQuestionRepository) AllTestCases(ctx context.Context, id int) ([]model.TestCase, error) {
	q, err := r.find(id)
	if err != nil {
		return nil, err
	}
	return append([]model.TestCase(nil), q.TestCases...), nil
}

func (r *catalogQuestionRepository) Count() int {
	return len(r.ordered)
}

func (r *catalogQuestionRepository) MaxTotalScore() int {
	return r.maxScore
}
