package model

import (
	"slices"
	"time"
)

type UserProgress struct {
	UserID             string    `json:"userId"`
	CompletedQuestions []int     `json:"completedQuestions"`
	TotalScore         int       `json:"totalScore"`
	TimeRemaining      int       `json:"timeRemaining"` // seconds
	LastActivity       time.Time `json:"lastActivity"`
}

// ProgressUpdate is a partial update; nil fields are left untouched.
type ProgressUpdate struct {
	CompletedQuestions []int
	TotalScore         *int
	TimeRemaining      *int
}

func NewUserProgress(userID string, budgetSeconds int, now time.Time) *UserProgress {
	return &UserProgress{
		UserID:             userID,
		CompletedQuestions: []int{},
		TimeRemaining:      budgetSeconds,
		LastActivity:       now,
	}
}

// Apply merges u into p and refreshes LastActivity.
func (p *UserProgress) Apply(u ProgressUpdate, now time.Time) {
	if u.CompletedQuestions != nil {
		p.CompletedQuestions = append([]int{}, u.CompletedQuestions...)
	}
	if u.TotalScore != nil {
		p.TotalScore = *u.TotalScore
	}
	if u.TimeRemaining != nil {
		p.TimeRemaining = *u.TimeRemaining
	}
	p.LastActivity = now
}

func (p *UserProgress) HasCompleted(questionID int) bool {
	return slices.Contains(p.CompletedQuestions, questionID)
}

func (p *UserProgress) Clone() *UserProgress {
	c := *p
	c.CompletedQuestions = append([]int{}, p.CompletedQuestions...)
	return &c
}
