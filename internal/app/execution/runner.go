package execution

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const noTestCasesMessage = "No test cases found"

// Runner evaluates code against a set of test cases through an Executor.
type Runner struct {
	executor Executor
	now      func() time.Time
}

func NewRunner(executor Executor) *Runner {
	return &Runner{executor: executor, now: time.Now}
}

// Run executes code against cases of question questionID, sequentially and
// in the given order.
//
// A validation or compilation failure yields Success=false with the reason
// and no results. A runtime failure on one case is recorded on that case
// and the remaining cases still run. An empty case subset returns the
// failed result together with common.ErrNoTestCases.
func (r *Runner) Run(ctx context.Context, questionID int, cases []model.TestCase, code string, lang model.Language) (*model.ExecutionResult, error) {
	if len(cases) == 0 {
		return &model.ExecutionResult{
			Success: false,
			Results: []model.TestResult{},
			Error:   noTestCasesMessage,
		}, fmt.Errorf("question %d: %w", questionID, common.ErrNoTestCases)
	}

	if err := r.executor.Validate(code, lang); err != nil {
		return compileFailure(err), nil
	}

	results := make([]model.TestResult, 0, len(cases))
	for i, tc := range cases {
		start := r.now()
		output, err := r.executor.Execute(ctx, code, lang, tc.Input)
		elapsed := r.now().Sub(start).Milliseconds()

		if err != nil {
			var compileErr *CompilationError
			if errors.As(err, &compileErr) {
				return compileFailure(compileErr), nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, common.ErrServiceUnavailable) {
				return nil, err
			}
			output = "Runtime Error: " + err.Error()
		}

		results = append(results, model.TestResult{
			TestCaseIndex:  i,
			Passed:         err == nil && OutputsMatch(strings.TrimSpace(output), strings.TrimSpace(tc.ExpectedOutput)),
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			ActualOutput:   output,
			ExecutionTime:  elapsed,
			IsVisible:      tc.IsVisible,
		})
	}

	return &model.ExecutionResult{Success: true, Results: results}, nil
}

func compileFailure(err error) *model.ExecutionResult {
	return &model.ExecutionResult{
		Success:          false,
		Results:          []model.TestResult{},
		CompilationError: err.Error(),
	}
}
