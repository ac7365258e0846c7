package flow

import (
	"strings"
	"time"
)

// Answer is the respondent's current value for one question. Exactly one of
// Value, Values or Iterations is populated depending on the question type.
// The timing fields are provenance only; the resolution rules never read them.
type Answer struct {
	Value          string    `json:"value,omitempty"`
	Values         []string  `json:"values,omitempty"`
	Iterations     []string  `json:"iterations,omitempty"`
	StartedAt      time.Time `json:"startedAt,omitempty"`
	AnsweredAt     time.Time `json:"answeredAt,omitempty"`
	TimeToAnswerMS int64     `json:"timeToAnswerMs,omitempty"`
}

// Empty reports whether the answer carries no usable value at all. Iteration
// slots may be blank mid-entry, so one filled slot is enough to count.
func (a *Answer) Empty() bool {
	if a == nil {
		return true
	}
	if strings.TrimSpace(a.Value) != "" || len(a.Values) > 0 {
		return false
	}
	for _, v := range a.Iterations {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Display flattens the answer into a single line for judgment-service history
func (a *Answer) Display() string {
	switch {
	case a == nil:
		return ""
	case len(a.Values) > 0:
		return strings.Join(a.Values, ", ")
	case len(a.Iterations) > 0:
		var filled []string
		for _, v := range a.Iterations {
			if strings.TrimSpace(v) != "" {
				filled = append(filled, v)
			}
		}
		return strings.Join(filled, ", ")
	default:
		return a.Value
	}
}

// IterationValue returns the slot value at the given index, or ""
func (a *Answer) IterationValue(i int) string {
	if a == nil || i < 0 || i >= len(a.Iterations) {
		return ""
	}
	return a.Iterations[i]
}

// AnswerSet maps question id to the respondent's current answer. It starts
// empty, is mutated only by respondent input events, and round-trips through
// JSON unchanged for cache storage.
type AnswerSet map[string]*Answer

func NewAnswerSet() AnswerSet {
	return make(AnswerSet)
}

// Get returns the answer for a question id, or nil
func (s AnswerSet) Get(id string) *Answer {
	return s[id]
}

// Answered reports whether the question has a non-empty answer
func (s AnswerSet) Answered(id string) bool {
	return !s[id].Empty()
}

// MarkStarted records when a question was first presented, once
func (s AnswerSet) MarkStarted(id string) {
	a := s.ensure(id)
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}
}

// SetValue records a scalar answer
func (s AnswerSet) SetValue(id, value string) {
	a := s.ensure(id)
	a.Value = value
	a.Values = nil
	a.stamp()
}

// SetValues records a multi-select answer
func (s AnswerSet) SetValues(id string, values []string) {
	a := s.ensure(id)
	a.Values = append([]string(nil), values...)
	a.Value = ""
	a.stamp()
}

// SetIteration records one repetition slot of an iterative answer, growing
// the slot list as needed
func (s AnswerSet) SetIteration(id string, index int, value string) {
	if index < 0 {
		return
	}
	a := s.ensure(id)
	for len(a.Iterations) <= index {
		a.Iterations = append(a.Iterations, "")
	}
	a.Iterations[index] = value
	a.stamp()
}

// Delete removes a question's answer entirely
func (s AnswerSet) Delete(id string) {
	delete(s, id)
}

// Clone returns a deep copy of the set
func (s AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(s))
	for id, a := range s {
		copied := *a
		copied.Values = append([]string(nil), a.Values...)
		copied.Iterations = append([]string(nil), a.Iterations...)
		out[id] = &copied
	}
	return out
}

func (s AnswerSet) ensure(id string) *Answer {
	a := s[id]
	if a == nil {
		a = &Answer{}
		s[id] = a
	}
	return a
}

func (a *Answer) stamp() {
	a.AnsweredAt = time.Now()
	if !a.StartedAt.IsZero() {
		a.TimeToAnswerMS = a.AnsweredAt.Sub(a.StartedAt).Milliseconds()
	}
}
