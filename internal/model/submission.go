package model

import "time"

// SubmissionMetadata is advisory context recorded with a completed run
type SubmissionMetadata struct {
	Mode        SessionMode `json:"mode" bson:"mode"`
	Language    string      `json:"language,omitempty" bson:"language,omitempty"`
	StartedAt   time.Time   `json:"startedAt" bson:"startedAt"`
	SubmittedAt time.Time   `json:"submittedAt" bson:"submittedAt"`
	DurationMS  int64       `json:"durationMs" bson:"durationMs"`
}

// Submission is the shell record for one respondent's completed survey run.
// Answer rows live in their own collection keyed by SubmissionID so a failed
// answer write can roll the shell back without partial state.
type Submission struct {
	ID             string             `json:"id" bson:"_id,omitempty"`
	SurveyID       string             `json:"surveyId" bson:"surveyId"`
	RespondentName string             `json:"respondentName,omitempty" bson:"respondentName,omitempty"`
	Metadata       SubmissionMetadata `json:"metadata" bson:"metadata"`
}

// SubmissionAnswer is one recorded answer value. Iterative questions produce
// one row per iteration slot, Iteration pointing at the 0-based index.
type SubmissionAnswer struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	SubmissionID   string    `json:"submissionId" bson:"submissionId"`
	QuestionID     string    `json:"questionId" bson:"questionId"`
	Iteration      *int      `json:"iteration,omitempty" bson:"iteration,omitempty"`
	Value          string    `json:"value,omitempty" bson:"value,omitempty"`
	Values         []string  `json:"values,omitempty" bson:"values,omitempty"` // Multi-select only
	StartedAt      time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	AnsweredAt     time.Time `json:"answeredAt,omitempty" bson:"answeredAt,omitempty"`
	TimeToAnswerMS int64     `json:"timeToAnswerMs,omitempty" bson:"timeToAnswerMs,omitempty"`
}
