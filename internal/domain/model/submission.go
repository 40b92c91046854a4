package model

import "time"

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionRunning   SubmissionStatus = "running"
	SubmissionCompleted SubmissionStatus = "completed"
	SubmissionError     SubmissionStatus = "error"
)

type Submission struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	QuestionID  int              `json:"questionId"`
	Code        string           `json:"code"`
	Language    Language         `json:"language"`
	Status      SubmissionStatus `json:"status"`
	Score       int              `json:"score"`
	TestResults []TestResult     `json:"testResults"`
	SubmittedAt time.Time        `json:"submittedAt"`
}

type TestResult struct {
	TestCaseIndex  int    `json:"testCaseIndex"`
	Passed         bool   `json:"passed"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	ExecutionTime  int64  `json:"executionTime"` // milliseconds
	IsVisible      bool   `json:"isVisible"`
}

func (s *Submission) PassedTests() int {
	passed := 0
	for _, r := range s.TestResults {
		if r.Passed {
			passed++
		}
	}
	return passed
}

func (s *Submission) Clone() *Submission {
	c := *s
	c.TestResults = append([]TestResult(nil), s.TestResults...)
	return &c
}
