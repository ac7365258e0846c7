package flow

import (
	"context"
	"fmt"
)

// Cursor is the chat-mode position: the question currently being asked and,
// for iterative questions, the 0-based repetition in progress. It is the only
// session state besides the answers, and it is derived, never authoritative.
type Cursor struct {
	QuestionID string `json:"questionId"`
	Iteration  int    `json:"iteration"`
}

// Key returns the cursor's error/serialization key, id or id-iteration for
// iterative questions
func (c Cursor) Key(t *Tree) string {
	if q := t.Question(c.QuestionID); q != nil && q.Iterative {
		return fmt.Sprintf("%s-%d", c.QuestionID, c.Iteration)
	}
	return c.QuestionID
}

// Resolver advances the chat-mode cursor one step at a time. The remaining
// sequence is never precomputed: a branch's outcome does not exist until the
// triggering answer does, so only the immediate next step is ever resolved.
type Resolver struct {
	eval *Evaluator
}

func NewResolver(eval *Evaluator) *Resolver {
	return &Resolver{eval: eval}
}

// First returns the opening cursor position: the first visible question in
// document order, at iteration 0. nil means the survey has no askable
// questions and is complete immediately.
func (r *Resolver) First(ctx context.Context, answers AnswerSet) *Cursor {
	for _, q := range r.eval.tree.order {
		if r.eval.Visible(ctx, q, answers) {
			return &Cursor{QuestionID: q.ID}
		}
	}
	return nil
}

// Advance resolves the next cursor position after a validated answer at cur.
// In order:
//  1. an iterative question with repetitions left moves to its next slot,
//     before any other question is considered;
//  2. otherwise the scan moves forward in document order, which reaches the
//     sub-questions the answer just revealed first (depth-first, first match
//     wins) and then later siblings, taking the first visible question at
//     iteration 0.
//
// nil means no further question is visible: the survey is complete. Advance
// is a pure function of (cursor, answers); re-advancing the same state yields
// the same result.
func (r *Resolver) Advance(ctx context.Context, cur Cursor, answers AnswerSet) (*Cursor, error) {
	t := r.eval.tree
	q := t.Question(cur.QuestionID)
	if q == nil {
		return nil, fmt.Errorf("cursor points at unknown question %q", cur.QuestionID)
	}

	if q.Iterative {
		if n := t.IterationCount(q, answers); cur.Iteration+1 < n {
			return &Cursor{QuestionID: q.ID, Iteration: cur.Iteration + 1}, nil
		}
	}

	seen := false
	for _, cand := range t.order {
		if cand.ID == q.ID {
			seen = true
			continue
		}
		if !seen {
			continue
		}
		if r.eval.Visible(ctx, cand, answers) {
			return &Cursor{QuestionID: cand.ID}, nil
		}
	}
	return nil, nil
}
