package model

// QuestionType defines the answer shape a question collects
type QuestionType string

const (
	QuestionTypeText        QuestionType = "text"                  // Free text
	QuestionTypeNumber      QuestionType = "number"                // Numeric, optional min/max range
	QuestionTypeYesNo       QuestionType = "yes-no"                // Yes/No
	QuestionTypeChoice      QuestionType = "multiple-choice"       // Single selection
	QuestionTypeMultiChoice QuestionType = "multiple-choice-multi" // Multiple selections
)

// Option is a selectable choice for choice-like questions
type Option struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
}

// Question is a node in a survey's question tree. Parent/child structure is
// expressed through ParentID only; children are resolved by an index built at
// load time, never stored twice.
type Question struct {
	ID              string       `json:"id" bson:"id"`
	Text            string       `json:"text" bson:"text"`
	Type            QuestionType `json:"type" bson:"type"`
	Options         []Option     `json:"options,omitempty" bson:"options,omitempty"`                 // Choice types only
	MinRange        *float64     `json:"minRange,omitempty" bson:"minRange,omitempty"`               // number only
	MaxRange        *float64     `json:"maxRange,omitempty" bson:"maxRange,omitempty"`               // number only
	ExpectedAnswers []string     `json:"expectedAnswers,omitempty" bson:"expectedAnswers,omitempty"` // Hint list for semantic validation
	ParentID        string       `json:"parentQuestionId,omitempty" bson:"parentQuestionId,omitempty"`
	TriggerValue    string       `json:"triggerConditionValue,omitempty" bson:"triggerConditionValue,omitempty"` // Parent answer that reveals this question
	Iterative       bool         `json:"isIterative,omitempty" bson:"isIterative,omitempty"`
	SourceID        string       `json:"iterativeSourceQuestionId,omitempty" bson:"iterativeSourceQuestionId,omitempty"` // Numeric question counting the repetitions
}

// IsChoice reports whether the question carries an options list
func (q *Question) IsChoice() bool {
	return q.Type == QuestionTypeChoice || q.Type == QuestionTypeMultiChoice
}

// Conditional reports whether the question is gated by a parent trigger
func (q *Question) Conditional() bool {
	return q.ParentID != ""
}
