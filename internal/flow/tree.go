// Package flow implements the survey flow resolution engine: given an
// immutable question tree and the respondent's current answers, it decides
// which questions are visible, how often a repeating question is asked, what
// the next question in chat mode is, and whether the answer set is ready for
// submission. Both the form view and the chat view consume this one
// implementation.
package flow

import (
	"fmt"

	"github.com/canvasslabs/canvass/internal/model"
)

// StructuralError reports a malformed question tree. Trees failing structural
// validation are rejected at load time, before any session starts.
type StructuralError struct {
	QuestionID string
	Reason     string
}

func (e *StructuralError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("invalid question tree: %s", e.Reason)
	}
	return fmt.Sprintf("invalid question tree: %s (question %q)", e.Reason, e.QuestionID)
}

// Tree is the arena for one survey's questions. Nodes are addressed by id;
// parent/child edges are stored once (ParentID on the child) and the children
// index plus the canonical document order are derived here at load time.
// A Tree is immutable for the lifetime of a session.
type Tree struct {
	nodes    map[string]*model.Question
	children map[string][]string
	order    []*model.Question
}

// NewTree builds and validates the arena from a survey's flat question list.
// Sibling order follows the input order. Document order is depth-first:
// children directly after their parent, before the parent's later siblings.
func NewTree(questions []model.Question) (*Tree, error) {
	t := &Tree{
		nodes:    make(map[string]*model.Question, len(questions)),
		children: make(map[string][]string),
	}

	for i := range questions {
		q := questions[i]
		if q.ID == "" {
			return nil, &StructuralError{Reason: "question without id"}
		}
		if _, dup := t.nodes[q.ID]; dup {
			return nil, &StructuralError{QuestionID: q.ID, Reason: "duplicate question id"}
		}
		t.nodes[q.ID] = &q
	}

	var roots []string
	for i := range questions {
		q := &questions[i]
		if err := t.validateNode(q); err != nil {
			return nil, err
		}
		if q.ParentID == "" {
			roots = append(roots, q.ID)
		} else {
			t.children[q.ParentID] = append(t.children[q.ParentID], q.ID)
		}
	}

	t.order = make([]*model.Question, 0, len(t.nodes))
	for _, id := range roots {
		t.appendSubtree(id)
	}
	// Nodes unreachable from any root form a parent cycle
	if len(t.order) != len(t.nodes) {
		return nil, &StructuralError{Reason: "parent references form a cycle"}
	}

	return t, nil
}

func (t *Tree) validateNode(q *model.Question) error {
	if q.Text == "" {
		return &StructuralError{QuestionID: q.ID, Reason: "question without text"}
	}
	if q.ParentID != "" {
		if q.ParentID == q.ID {
			return &StructuralError{QuestionID: q.ID, Reason: "question is its own parent"}
		}
		if _, ok := t.nodes[q.ParentID]; !ok {
			return &StructuralError{QuestionID: q.ID, Reason: fmt.Sprintf("dangling parent reference %q", q.ParentID)}
		}
	}
	if q.Iterative {
		if q.SourceID == "" {
			return &StructuralError{QuestionID: q.ID, Reason: "iterative question without source"}
		}
		if q.SourceID == q.ID {
			return &StructuralError{QuestionID: q.ID, Reason: "iterative question references itself as source"}
		}
		if _, ok := t.nodes[q.SourceID]; !ok {
			return &StructuralError{QuestionID: q.ID, Reason: fmt.Sprintf("dangling iterative source reference %q", q.SourceID)}
		}
	}
	if q.IsChoice() && len(q.Options) == 0 {
		return &StructuralError{QuestionID: q.ID, Reason: "choice question without options"}
	}
	if !q.IsChoice() && len(q.Options) > 0 {
		return &StructuralError{QuestionID: q.ID, Reason: "options on a non-choice question"}
	}
	return nil
}

func (t *Tree) appendSubtree(id string) {
	t.order = append(t.order, t.nodes[id])
	for _, child := range t.children[id] {
		t.appendSubtree(child)
	}
}

// Question returns the node with the given id, or nil
func (t *Tree) Question(id string) *model.Question {
	return t.nodes[id]
}

// Children returns a question's direct sub-questions in sibling order
func (t *Tree) Children(id string) []*model.Question {
	ids := t.children[id]
	if len(ids) == 0 {
		return nil
	}
	out := make([]*model.Question, len(ids))
	for i, cid := range ids {
		out[i] = t.nodes[cid]
	}
	return out
}

// Ordered returns every question in canonical document order
func (t *Tree) Ordered() []*model.Question {
	return t.order
}

// Ancestors returns the chain of parents from the question up to its root
func (t *Tree) Ancestors(id string) []*model.Question {
	var chain []*model.Question
	q := t.nodes[id]
	for q != nil && q.ParentID != "" {
		q = t.nodes[q.ParentID]
		if q != nil {
			chain = append(chain, q)
		}
	}
	return chain
}

// Len returns the number of questions in the tree
func (t *Tree) Len() int {
	return len(t.nodes)
}
