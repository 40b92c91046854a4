package execution

import (
	"code_assessment/internal/domain/model"
	"context"
)

// Executor turns source code plus stdin into program output.
type Executor interface {
	// Validate rejects code that must not be run. A non-nil result is a
	// *CompilationError.
	Validate(code string, lang model.Language) error
	// Execute runs code once against input. A *CompilationError means the
	// code never ran; any other error is a runtime failure for this input.
	Execute(ctx context.Context, code string, lang model.Language, input string) (string, error)
}

// CompilationError is a terminal verdict for an attempt: no test case runs.
type CompilationError struct {
	Reason string
}

func (e *CompilationError) Error() string {
	return e.Reason
}

func compilationError(reason string) error {
	return &CompilationError{Reason: reason}
}
