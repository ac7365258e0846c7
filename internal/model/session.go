package model

import "time"

// SessionMode selects how a respondent consumes the survey
type SessionMode string

const (
	SessionModeChat SessionMode = "chat" // One question at a time, cursor-driven
	SessionModeForm SessionMode = "form" // All visible questions at once
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionSubmitted SessionStatus = "submitted"
	SessionAbandoned SessionStatus = "abandoned"
)

// Session is a respondent's in-progress run of one survey. It lives in the
// cache for the duration of the run; only the resulting Submission persists.
type Session struct {
	ID             string        `json:"id"`
	SurveyID       string        `json:"surveyId"`
	RespondentName string        `json:"respondentName,omitempty"`
	Mode           SessionMode   `json:"mode"`
	Status         SessionStatus `json:"status"`
	SubmissionID   string        `json:"submissionId,omitempty"` // Set once the shell record exists
	StartedAt      time.Time     `json:"startedAt"`
}
