package model

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusQueued     JobStatus = "Queued"
	JobStatusProcessing JobStatus = "Processing"
	JobStatusCompleted  JobStatus = "Completed"
	JobStatusFailed     JobStatus = "Failed"
)

// GradingJob tracks one asynchronous submit. The Submission itself is
// created by the grader when the job finishes.
type GradingJob struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	QuestionID   int             `json:"questionId"`
	Language     Language        `json:"language"`
	Payload      json.RawMessage `json:"-"` // Not directly exposed; internal use
	Status       JobStatus       `json:"status"`
	Attempts     int             `json:"attempts"`
	SubmissionID *string         `json:"submissionId,omitempty"`
	Result       *GradingResult  `json:"result,omitempty"`
	LastError    *string         `json:"lastError,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type GradingPayload struct {
	QuestionID int      `json:"questionId"`
	Code       string   `json:"code"`
	Language   Language `json:"language"`
}

func (j *GradingJob) Clone() *GradingJob {
	c := *j
	c.Payload = append(json.RawMessage(nil), j.Payload...)
	if j.SubmissionID != nil {
		id := *j.SubmissionID
		c.SubmissionID = &id
	}
	if j.LastError != nil {
		msg := *j.LastError
		c.LastError = &msg
	}
	if j.Result != nil {
		r := *j.Result
		r.Results = append([]TestResult(nil), j.Result.Results...)
		c.Result = &r
	}
	return &c
}
