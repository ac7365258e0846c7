package flow

import (
	"context"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/canvasslabs/canvass/internal/model"
)

// Judge is the external judgment service consumed by the engine. Call
// failures never propagate to the respondent: every call site falls open to
// the permissive default and logs the fault.
type Judge interface {
	ShouldAsk(ctx context.Context, q *model.Question, history []model.AnsweredQuestion) (*model.AskJudgment, error)
	ValidateAnswer(ctx context.Context, q *model.Question, answer string) (*model.AnswerJudgment, error)
}

// Visible applies the structural visibility rules only: every ancestor must
// itself be visible, the parent must be answered with a value matching the
// trigger, and an iterative question needs a positive iteration count. Pure
// function of (tree, answers).
func (t *Tree) Visible(q *model.Question, answers AnswerSet) bool {
	if q == nil {
		return false
	}
	if q.Iterative && t.IterationCount(q, answers) <= 0 {
		return false
	}
	if q.ParentID == "" {
		return true
	}
	parent := t.nodes[q.ParentID]
	if !t.Visible(parent, answers) {
		return false
	}
	return triggerMatch(answers.Get(q.ParentID), q.TriggerValue)
}

// IterationCount resolves how many times a question is asked. Non-iterative
// questions are asked once. An iterative question repeats floor(n) times
// where n is the source question's current numeric answer; a missing,
// non-numeric or non-positive source answer means zero repetitions and the
// question is skipped entirely.
func (t *Tree) IterationCount(q *model.Question, answers AnswerSet) int {
	if q == nil {
		return 0
	}
	if !q.Iterative {
		return 1
	}
	src := answers.Get(q.SourceID)
	if src == nil {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(src.Value), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0
	}
	return int(math.Floor(n))
}

// VisibleQuestions returns the currently visible questions in document order,
// using the structural rules only
func (t *Tree) VisibleQuestions(answers AnswerSet) []*model.Question {
	var out []*model.Question
	for _, q := range t.order {
		if t.Visible(q, answers) {
			out = append(out, q)
		}
	}
	return out
}

// triggerMatch reports whether a parent answer satisfies a child's trigger.
// Comparison is case-insensitive; for multi-select or iterative parents,
// membership of the trigger among the entries suffices. An empty trigger
// only requires the parent to be answered.
func triggerMatch(a *Answer, trigger string) bool {
	if a.Empty() {
		return false
	}
	if trigger == "" {
		return true
	}
	if a.Value != "" && strings.EqualFold(strings.TrimSpace(a.Value), trigger) {
		return true
	}
	for _, v := range a.Values {
		if strings.EqualFold(v, trigger) {
			return true
		}
	}
	for _, v := range a.Iterations {
		if v != "" && strings.EqualFold(v, trigger) {
			return true
		}
	}
	return false
}

// Evaluator layers the optional should-ask veto on top of the structural
// rules. With a nil judge it is exactly the structural evaluation; with a
// judge, an unanswered question that passes the structural rules may still
// be skipped. Questions are evaluated one at a time, never in parallel,
// because each question's history depends on the answers before it.
type Evaluator struct {
	tree  *Tree
	judge Judge
}

// NewEvaluator wraps a tree. judge may be nil to disable the veto.
func NewEvaluator(tree *Tree, judge Judge) *Evaluator {
	return &Evaluator{tree: tree, judge: judge}
}

// Tree exposes the underlying arena
func (e *Evaluator) Tree() *Tree {
	return e.tree
}

// Visible applies the structural rules, then the judge veto. The veto only
// applies to questions not yet answered; an answered question's value is
// already part of the respondent's record and stays visible. A judge failure
// fails open: the question is asked.
func (e *Evaluator) Visible(ctx context.Context, q *model.Question, answers AnswerSet) bool {
	if !e.tree.Visible(q, answers) {
		return false
	}
	if e.judge == nil || answers.Answered(q.ID) {
		return true
	}
	judgment, err := e.judge.ShouldAsk(ctx, q, e.History(q, answers))
	if err != nil {
		log.Printf("[Flow] should-ask for question %s failed open: %v", q.ID, err)
		return true
	}
	if !judgment.Ask {
		log.Printf("[Flow] question %s skipped by judgment: %s", q.ID, judgment.Reason)
	}
	return judgment.Ask
}

// VisibleQuestions returns the visible set in document order, veto included
func (e *Evaluator) VisibleQuestions(ctx context.Context, answers AnswerSet) []*model.Question {
	var out []*model.Question
	for _, q := range e.tree.order {
		if e.Visible(ctx, q, answers) {
			out = append(out, q)
		}
	}
	return out
}

// History builds the prior-answer context handed to the judgment service:
// only questions before q in document order that are structurally visible
// and already answered.
func (e *Evaluator) History(q *model.Question, answers AnswerSet) []model.AnsweredQuestion {
	var history []model.AnsweredQuestion
	for _, prior := range e.tree.order {
		if prior.ID == q.ID {
			break
		}
		if !e.tree.Visible(prior, answers) {
			continue
		}
		a := answers.Get(prior.ID)
		if a.Empty() {
			continue
		}
		history = append(history, model.AnsweredQuestion{Question: prior.Text, Answer: a.Display()})
	}
	return history
}
