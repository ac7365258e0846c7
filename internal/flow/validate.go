package flow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/canvasslabs/canvass/internal/model"
)

// RequiredMessage is the presence-violation text shown next to a question
const RequiredMessage = "This question is required."

// ValidationResult aggregates per-question validation failures. Keys are the
// question id, or id-iteration for one repetition of an iterative question.
type ValidationResult struct {
	Errors map[string]string `json:"errors"`
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{Errors: make(map[string]string)}
}

// OK reports whether the answer set passed every check
func (r *ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Add records a failure for a key; the first failure per key wins
func (r *ValidationResult) Add(key, message string) {
	if _, exists := r.Errors[key]; !exists {
		r.Errors[key] = message
	}
}

// ErrorKey returns the result key for a question, or for one repetition of an
// iterative question
func ErrorKey(q *model.Question, iteration int) string {
	if q.Iterative {
		return fmt.Sprintf("%s-%d", q.ID, iteration)
	}
	return q.ID
}

// Validator walks the currently visible questions and applies presence,
// type/range and semantic checks. The judge handles semantic validity of free
// text; its failures fall open so an unreachable judgment service never
// blocks a submission.
type Validator struct {
	eval  *Evaluator
	judge Judge
}

// NewValidator builds a validator over the evaluator's visible set. judge may
// be nil to disable semantic checks.
func NewValidator(eval *Evaluator, judge Judge) *Validator {
	return &Validator{eval: eval, judge: judge}
}

// Validate checks every currently visible question. Persistence must only
// run when the result is OK.
func (v *Validator) Validate(ctx context.Context, answers AnswerSet) *ValidationResult {
	res := NewValidationResult()
	for _, q := range v.eval.tree.order {
		if !v.eval.Visible(ctx, q, answers) {
			continue
		}
		v.checkQuestion(ctx, q, answers, res)
	}
	return res
}

// CheckAnswer validates one candidate answer without recording it, for
// inline feedback before an answer is accepted. Returns the error message
// and whether the answer passed.
func (v *Validator) CheckAnswer(ctx context.Context, q *model.Question, value string, values []string) (string, bool) {
	if q.Type == model.QuestionTypeMultiChoice {
		if len(values) == 0 {
			return RequiredMessage, false
		}
		return "", true
	}
	if strings.TrimSpace(value) == "" {
		return RequiredMessage, false
	}
	if msg := v.checkValue(ctx, q, value); msg != "" {
		return msg, false
	}
	return "", true
}

func (v *Validator) checkQuestion(ctx context.Context, q *model.Question, answers AnswerSet, res *ValidationResult) {
	a := answers.Get(q.ID)

	if q.Iterative {
		n := v.eval.tree.IterationCount(q, answers)
		for i := 0; i < n; i++ {
			raw := a.IterationValue(i)
			if strings.TrimSpace(raw) == "" {
				res.Add(ErrorKey(q, i), RequiredMessage)
				continue
			}
			if msg := v.checkValue(ctx, q, raw); msg != "" {
				res.Add(ErrorKey(q, i), msg)
			}
		}
		return
	}

	if q.Type == model.QuestionTypeMultiChoice {
		if a == nil || len(a.Values) == 0 {
			res.Add(q.ID, RequiredMessage)
		}
		return
	}

	var raw string
	if a != nil {
		raw = a.Value
	}
	if strings.TrimSpace(raw) == "" {
		res.Add(q.ID, RequiredMessage)
		return
	}
	if msg := v.checkValue(ctx, q, raw); msg != "" {
		res.Add(q.ID, msg)
	}
}

// checkValue applies the non-presence checks for a single non-empty value
func (v *Validator) checkValue(ctx context.Context, q *model.Question, raw string) string {
	switch q.Type {
	case model.QuestionTypeNumber:
		return numberMessage(q, raw)
	case model.QuestionTypeText:
		return v.semanticMessage(ctx, q, raw)
	default:
		return ""
	}
}

func numberMessage(q *model.Question, raw string) string {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "Please enter a valid number."
	}
	min, max := q.MinRange, q.MaxRange
	switch {
	case min != nil && max != nil && (n < *min || n > *max):
		return fmt.Sprintf("Answer must be between %s and %s.", formatBound(*min), formatBound(*max))
	case min != nil && n < *min:
		return fmt.Sprintf("Answer must be at least %s.", formatBound(*min))
	case max != nil && n > *max:
		return fmt.Sprintf("Answer must be at most %s.", formatBound(*max))
	}
	return ""
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// semanticMessage asks the judge whether a free-text answer is acceptable.
// A judge failure is logged and treated as acceptable.
func (v *Validator) semanticMessage(ctx context.Context, q *model.Question, raw string) string {
	if v.judge == nil {
		return ""
	}
	judgment, err := v.judge.ValidateAnswer(ctx, q, raw)
	if err != nil {
		log.Printf("[Flow] answer validation for question %s failed open: %v", q.ID, err)
		return ""
	}
	if judgment.Valid {
		return ""
	}
	if judgment.Suggestion != "" {
		return judgment.Suggestion
	}
	return "Please review this answer."
}
