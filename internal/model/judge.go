package model

// AnsweredQuestion is one entry of the prior-answer history handed to the
// judgment service, in traversal order
type AnsweredQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AskJudgment is the AI response for a should-ask check
type AskJudgment struct {
	Ask    bool   `json:"ask"`
	Reason string `json:"reason,omitempty"`
}

// AnswerJudgment is the AI response for semantic answer validation
type AnswerJudgment struct {
	Valid      bool   `json:"valid"`
	Suggestion string `json:"suggestion,omitempty"` // Shown to the respondent when Valid is false
}

// GeneratedSurvey is the AI response envelope for question generation
type GeneratedSurvey struct {
	Questions []Question `json:"questions"`
}
