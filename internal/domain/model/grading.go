package model

// ExecutionResult is what the test runner produces for one attempt.
type ExecutionResult struct {
	Success          bool         `json:"success"`
	Results          []TestResult `json:"results"`
	Error            string       `json:"error,omitempty"`
	CompilationError string       `json:"compilationError,omitempty"`
}

// FailureReason is the text shown to the candidate for a failed run.
func (r *ExecutionResult) FailureReason() string {
	if r.Error != "" {
		return r.Error
	}
	return r.CompilationError
}

type GradingResult struct {
	SubmissionID     string       `json:"submissionId"`
	Score            int          `json:"score"`
	TotalScore       int          `json:"totalScore"`
	MaxScore         int          `json:"maxScore"`
	PassedTests      int          `json:"passedTests"`
	TotalTests       int          `json:"totalTests"`
	Results          []TestResult `json:"results"`
	CompilationError string       `json:"compilationError,omitempty"`
}

type RunResult struct {
	Results []TestResult `json:"results"`
	Error   string       `json:"error,omitempty"`
}
