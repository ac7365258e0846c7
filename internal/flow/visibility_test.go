package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/model"
)

// stubJudge implements Judge with overridable behavior per test
type stubJudge struct {
	shouldAsk      func(q *model.Question, history []model.AnsweredQuestion) (*model.AskJudgment, error)
	validateAnswer func(q *model.Question, answer string) (*model.AnswerJudgment, error)
	askCalls       int
	validateCalls  int
}

func (s *stubJudge) ShouldAsk(_ context.Context, q *model.Question, history []model.AnsweredQuestion) (*model.AskJudgment, error) {
	s.askCalls++
	if s.shouldAsk == nil {
		return &model.AskJudgment{Ask: true}, nil
	}
	return s.shouldAsk(q, history)
}

func (s *stubJudge) ValidateAnswer(_ context.Context, q *model.Question, answer string) (*model.AnswerJudgment, error) {
	s.validateCalls++
	if s.validateAnswer == nil {
		return &model.AnswerJudgment{Valid: true}, nil
	}
	return s.validateAnswer(q, answer)
}

func mustTree(t *testing.T, qs []model.Question) *Tree {
	t.Helper()
	tree, err := NewTree(qs)
	require.NoError(t, err)
	return tree
}

func carTree(t *testing.T) *Tree {
	t.Helper()
	return mustTree(t, []model.Question{
		{ID: "q-car", Text: "Do you own a car?", Type: model.QuestionTypeYesNo},
		{ID: "q-model", Text: "What model is it?", Type: model.QuestionTypeText, ParentID: "q-car", TriggerValue: "Yes"},
		{ID: "q-color", Text: "Favourite colour?", Type: model.QuestionTypeText},
	})
}

func petTree(t *testing.T) *Tree {
	t.Helper()
	return mustTree(t, []model.Question{
		{ID: "q-pets", Text: "How many pets do you have?", Type: model.QuestionTypeNumber},
		{ID: "q-name", Text: "Name of this pet?", Type: model.QuestionTypeText, Iterative: true, SourceID: "q-pets"},
		{ID: "q-end", Text: "Anything else?", Type: model.QuestionTypeText},
	})
}

func TestVisibleParentGate(t *testing.T) {
	tree := carTree(t)
	child := tree.Question("q-model")

	answers := NewAnswerSet()
	assert.False(t, tree.Visible(child, answers), "parent unanswered")

	answers.SetValue("q-car", "No")
	assert.False(t, tree.Visible(child, answers), "trigger mismatch")

	answers.SetValue("q-car", "yes")
	assert.True(t, tree.Visible(child, answers), "trigger matches case-insensitively")

	answers.SetValue("q-car", " YES ")
	assert.True(t, tree.Visible(child, answers), "surrounding whitespace ignored")
}

func TestVisibleMultiSelectMembership(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "q-langs", Text: "Which languages do you use?", Type: model.QuestionTypeMultiChoice,
			Options: []model.Option{{ID: "go", Text: "Go"}, {ID: "rust", Text: "Rust"}}},
		{ID: "q-go", Text: "Years of Go?", Type: model.QuestionTypeNumber, ParentID: "q-langs", TriggerValue: "Go"},
	})
	child := tree.Question("q-go")

	answers := NewAnswerSet()
	answers.SetValues("q-langs", []string{"Rust"})
	assert.False(t, tree.Visible(child, answers))

	answers.SetValues("q-langs", []string{"Rust", "go"})
	assert.True(t, tree.Visible(child, answers), "membership matches case-insensitively")
}

func TestVisibleAncestorChain(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "a", Text: "A", Type: model.QuestionTypeYesNo},
		{ID: "b", Text: "B", Type: model.QuestionTypeYesNo, ParentID: "a", TriggerValue: "Yes"},
		{ID: "c", Text: "C", Type: model.QuestionTypeText, ParentID: "b", TriggerValue: "Yes"},
	})
	c := tree.Question("c")

	answers := NewAnswerSet()
	answers.SetValue("b", "Yes")
	assert.False(t, tree.Visible(c, answers), "grandparent unanswered hides the whole chain")

	answers.SetValue("a", "Yes")
	assert.True(t, tree.Visible(c, answers))

	answers.SetValue("a", "No")
	assert.False(t, tree.Visible(c, answers), "hidden ancestor hides descendants regardless of their own answers")
}

func TestIterationCount(t *testing.T) {
	tree := petTree(t)
	iter := tree.Question("q-name")

	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"missing", "", 0},
		{"non-numeric", "abc", 0},
		{"negative", "-2", 0},
		{"zero", "0", 0},
		{"exact", "3", 3},
		{"fractional truncates", "2.9", 2},
		{"numeric with spaces", " 4 ", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := NewAnswerSet()
			if tt.source != "" {
				answers.SetValue("q-pets", tt.source)
			}
			assert.Equal(t, tt.want, tree.IterationCount(iter, answers))
			if tt.want == 0 {
				assert.False(t, tree.Visible(iter, answers), "zero iterations means never shown")
			} else {
				assert.True(t, tree.Visible(iter, answers))
			}
		})
	}
}

func TestIterationCountNonIterative(t *testing.T) {
	tree := carTree(t)
	assert.Equal(t, 1, tree.IterationCount(tree.Question("q-color"), NewAnswerSet()))
}

func TestVisibleConditionalOfIterative(t *testing.T) {
	// All applicable rules AND together on nested combinations
	tree := mustTree(t, []model.Question{
		{ID: "q-count", Text: "How many jobs?", Type: model.QuestionTypeNumber},
		{ID: "q-job", Text: "Job title?", Type: model.QuestionTypeText, Iterative: true, SourceID: "q-count"},
		{ID: "q-detail", Text: "Management details?", Type: model.QuestionTypeText, ParentID: "q-job", TriggerValue: "manager"},
	})
	detail := tree.Question("q-detail")

	answers := NewAnswerSet()
	answers.SetIteration("q-job", 0, "Manager")
	assert.False(t, tree.Visible(detail, answers), "parent iterative question itself hidden while count is zero")

	answers.SetValue("q-count", "2")
	assert.True(t, tree.Visible(detail, answers), "slot value matches trigger once the parent is visible")

	answers.SetIteration("q-job", 0, "Engineer")
	assert.False(t, tree.Visible(detail, answers))
}

func TestVisibleQuestionsDocumentOrder(t *testing.T) {
	tree := carTree(t)
	answers := NewAnswerSet()

	ids := func(qs []*model.Question) []string {
		var out []string
		for _, q := range qs {
			out = append(out, q.ID)
		}
		return out
	}

	assert.Equal(t, []string{"q-car", "q-color"}, ids(tree.VisibleQuestions(answers)))

	answers.SetValue("q-car", "Yes")
	assert.Equal(t, []string{"q-car", "q-model", "q-color"}, ids(tree.VisibleQuestions(answers)))
}

func TestEvaluatorVetoSkipsQuestion(t *testing.T) {
	tree := carTree(t)
	judge := &stubJudge{
		shouldAsk: func(q *model.Question, _ []model.AnsweredQuestion) (*model.AskJudgment, error) {
			if q.ID == "q-color" {
				return &model.AskJudgment{Ask: false, Reason: "already covered"}, nil
			}
			return &model.AskJudgment{Ask: true}, nil
		},
	}
	eval := NewEvaluator(tree, judge)
	answers := NewAnswerSet()

	assert.True(t, eval.Visible(context.Background(), tree.Question("q-car"), answers))
	assert.False(t, eval.Visible(context.Background(), tree.Question("q-color"), answers))
}

func TestEvaluatorVetoFailsOpen(t *testing.T) {
	tree := carTree(t)
	judge := &stubJudge{
		shouldAsk: func(*model.Question, []model.AnsweredQuestion) (*model.AskJudgment, error) {
			return nil, errors.New("judgment service unreachable")
		},
	}
	eval := NewEvaluator(tree, judge)

	assert.True(t, eval.Visible(context.Background(), tree.Question("q-car"), NewAnswerSet()),
		"an infrastructure fault never hides a question")
}

func TestEvaluatorSkipsVetoForAnsweredQuestions(t *testing.T) {
	tree := carTree(t)
	judge := &stubJudge{
		shouldAsk: func(*model.Question, []model.AnsweredQuestion) (*model.AskJudgment, error) {
			return &model.AskJudgment{Ask: false}, nil
		},
	}
	eval := NewEvaluator(tree, judge)

	answers := NewAnswerSet()
	answers.SetValue("q-car", "Yes")

	assert.True(t, eval.Visible(context.Background(), tree.Question("q-car"), answers),
		"answered questions stay visible")
	assert.Zero(t, judge.askCalls, "the judge is never consulted for answered questions")
}

func TestHistoryContainsOnlyVisibleAnsweredPriors(t *testing.T) {
	tree := mustTree(t, []model.Question{
		{ID: "q1", Text: "Own a car?", Type: model.QuestionTypeYesNo},
		{ID: "q1a", Text: "Which model?", Type: model.QuestionTypeText, ParentID: "q1", TriggerValue: "Yes"},
		{ID: "q2", Text: "Commute how?", Type: model.QuestionTypeText},
		{ID: "q3", Text: "Remote days?", Type: model.QuestionTypeNumber},
	})
	eval := NewEvaluator(tree, nil)

	answers := NewAnswerSet()
	answers.SetValue("q1", "No")
	answers.SetValue("q1a", "stale")
	answers.SetValue("q2", "bike")

	history := eval.History(tree.Question("q3"), answers)
	require.Len(t, history, 2)
	assert.Equal(t, "Own a car?", history[0].Question)
	assert.Equal(t, "No", history[0].Answer)
	assert.Equal(t, "Commute how?", history[1].Question)
	assert.Equal(t, "bike", history[1].Answer, "hidden question answers are excluded even when present")
}
