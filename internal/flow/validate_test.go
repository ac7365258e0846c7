package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/model"
)

func ptr(f float64) *float64 { return &f }

func TestValidateRequiredVisibleQuestion(t *testing.T) {
	tree := carTree(t)
	v := NewValidator(NewEvaluator(tree, nil), nil)
	ctx := context.Background()

	res := v.Validate(ctx, NewAnswerSet())
	assert.False(t, res.OK())
	// q-model is hidden while q-car is unanswered, so exactly two errors
	require.Len(t, res.Errors, 2)
	assert.Equal(t, RequiredMessage, res.Errors["q-car"])
	assert.Equal(t, RequiredMessage, res.Errors["q-color"])

	answers := NewAnswerSet()
	answers.SetValue("q-car", "No")
	answers.SetValue("q-color", "red")
	res = v.Validate(ctx, answers)
	assert.True(t, res.OK())
	assert.Empty(t, res.Errors)
}

func TestValidateHiddenQuestionsAreIgnored(t *testing.T) {
	tree := carTree(t)
	v := NewValidator(NewEvaluator(tree, nil), nil)

	answers := NewAnswerSet()
	answers.SetValue("q-car", "No")

	res := v.Validate(context.Background(), answers)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, RequiredMessage, res.Errors["q-color"])
	assert.NotContains(t, res.Errors, "q-model")
}

func TestValidateIterationSlots(t *testing.T) {
	tree := petTree(t)
	v := NewValidator(NewEvaluator(tree, nil), nil)

	answers := NewAnswerSet()
	answers.SetValue("q-pets", "3")
	answers.SetIteration("q-name", 0, "Rex")
	answers.SetIteration("q-name", 2, "Blu")
	answers.SetValue("q-end", "no")

	res := v.Validate(context.Background(), answers)
	assert.False(t, res.OK())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, RequiredMessage, res.Errors["q-name-1"], "each empty repetition is keyed id-iteration")
}

func TestValidateNumberTypeAndRange(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "q-age", Text: "Your age?", Type: model.QuestionTypeNumber, MinRange: ptr(18), MaxRange: ptr(99)},
		{ID: "q-min", Text: "Team size?", Type: model.QuestionTypeNumber, MinRange: ptr(1)},
		{ID: "q-max", Text: "Rating?", Type: model.QuestionTypeNumber, MaxRange: ptr(10)},
	})
	v := NewValidator(NewEvaluator(tree, nil), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		id    string
		value string
		want  string
	}{
		{"non-numeric", "q-age", "abc", "Please enter a valid number."},
		{"below range", "q-age", "12", "Answer must be between 18 and 99."},
		{"above range", "q-age", "120", "Answer must be between 18 and 99."},
		{"below min only", "q-min", "0", "Answer must be at least 1."},
		{"above max only", "q-max", "11", "Answer must be at most 10."},
		{"lower bound inclusive", "q-age", "18", ""},
		{"upper bound inclusive", "q-age", "99", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := NewAnswerSet()
			answers.SetValue("q-age", "30")
			answers.SetValue("q-min", "5")
			answers.SetValue("q-max", "5")
			answers.SetValue(tt.id, tt.value)

			res := v.Validate(ctx, answers)
			if tt.want == "" {
				assert.NotContains(t, res.Errors, tt.id)
			} else {
				assert.Equal(t, tt.want, res.Errors[tt.id])
			}
		})
	}
}

func TestValidateMultiSelectNeedsSelection(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "q-pick", Text: "Pick some", Type: model.QuestionTypeMultiChoice,
			Options: []model.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}}},
	})
	v := NewValidator(NewEvaluator(tree, nil), nil)
	ctx := context.Background()

	answers := NewAnswerSet()
	answers.SetValues("q-pick", nil)
	res := v.Validate(ctx, answers)
	assert.Equal(t, RequiredMessage, res.Errors["q-pick"])

	answers.SetValues("q-pick", []string{"a"})
	assert.True(t, v.Validate(ctx, answers).OK())
}

func TestValidateSemanticSuggestion(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "q-city", Text: "Which city are you in?", Type: model.QuestionTypeText,
			ExpectedAnswers: []string{"a city name"}},
	})
	judge := &stubJudge{
		validateAnswer: func(q *model.Question, answer string) (*model.AnswerJudgment, error) {
			return &model.AnswerJudgment{Valid: false, Suggestion: "That does not look like a city."}, nil
		},
	}
	v := NewValidator(NewEvaluator(tree, nil), judge)

	answers := NewAnswerSet()
	answers.SetValue("q-city", "purple")

	res := v.Validate(context.Background(), answers)
	assert.Equal(t, "That does not look like a city.", res.Errors["q-city"])
}

func TestValidateSemanticFailsOpen(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "q-city", Text: "Which city are you in?", Type: model.QuestionTypeText},
	})
	judge := &stubJudge{
		validateAnswer: func(*model.Question, string) (*model.AnswerJudgment, error) {
			return nil, errors.New("judgment timeout")
		},
	}
	v := NewValidator(NewEvaluator(tree, nil), judge)

	answers := NewAnswerSet()
	answers.SetValue("q-city", "Lisbon")

	res := v.Validate(context.Background(), answers)
	assert.True(t, res.OK(), "an unreachable judge never blocks submission")
}

func TestValidateEmptyAnswerSkipsSemanticCheck(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "q-city", Text: "Which city are you in?", Type: model.QuestionTypeText},
	})
	judge := &stubJudge{}
	v := NewValidator(NewEvaluator(tree, nil), judge)

	res := v.Validate(context.Background(), NewAnswerSet())
	assert.Equal(t, RequiredMessage, res.Errors["q-city"])
	assert.Zero(t, judge.validateCalls, "no semantic call for an empty answer")
}

func TestCheckAnswer(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "q-age", Text: "Your age?", Type: model.QuestionTypeNumber, MinRange: ptr(0), MaxRange: ptr(120)},
		{ID: "q-pick", Text: "Pick", Type: model.QuestionTypeMultiChoice,
			Options: []model.Option{{ID: "a", Text: "A"}}},
	})
	v := NewValidator(NewEvaluator(tree, nil), nil)
	ctx := context.Background()

	msg, ok := v.CheckAnswer(ctx, tree.Question("q-age"), "", nil)
	assert.False(t, ok)
	assert.Equal(t, RequiredMessage, msg)

	msg, ok = v.CheckAnswer(ctx, tree.Question("q-age"), "abc", nil)
	assert.False(t, ok)
	assert.Equal(t, "Please enter a valid number.", msg)

	_, ok = v.CheckAnswer(ctx, tree.Question("q-age"), "42", nil)
	assert.True(t, ok)

	msg, ok = v.CheckAnswer(ctx, tree.Question("q-pick"), "", nil)
	assert.False(t, ok)
	assert.Equal(t, RequiredMessage, msg)

	_, ok = v.CheckAnswer(ctx, tree.Question("q-pick"), "", []string{"a"})
	assert.True(t, ok)
}
