package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canvasslabs/canvass/internal/cache"
	"github.com/canvasslabs/canvass/internal/config"
	"github.com/canvasslabs/canvass/internal/flow"
	"github.com/canvasslabs/canvass/internal/model"
)

// In-memory fakes for the storage and cache interfaces. They copy on read and
// write the way the real implementations serialize, so tests catch aliasing.

type fakeSurveyRepo struct {
	surveys map[string]*model.Survey
	nextID  int
}

func newFakeSurveyRepo() *fakeSurveyRepo {
	return &fakeSurveyRepo{surveys: make(map[string]*model.Survey)}
}

func (f *fakeSurveyRepo) Create(_ context.Context, survey *model.Survey) (string, error) {
	f.nextID++
	id := fmt.Sprintf("sv_%d", f.nextID)
	cp := *survey
	cp.ID = id
	f.surveys[id] = &cp
	return id, nil
}

func (f *fakeSurveyRepo) GetByID(_ context.Context, id string) (*model.Survey, error) {
	survey, ok := f.surveys[id]
	if !ok {
		return nil, nil
	}
	cp := *survey
	return &cp, nil
}

func (f *fakeSurveyRepo) GetByOwnerID(_ context.Context, ownerID string) ([]*model.Survey, error) {
	var out []*model.Survey
	for _, s := range f.surveys {
		if s.OwnerID == ownerID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSurveyRepo) Update(_ context.Context, survey *model.Survey) error {
	if _, ok := f.surveys[survey.ID]; !ok {
		return fmt.Errorf("survey %s not found", survey.ID)
	}
	cp := *survey
	f.surveys[survey.ID] = &cp
	return nil
}

func (f *fakeSurveyRepo) Delete(_ context.Context, id string) error {
	delete(f.surveys, id)
	return nil
}

type fakeSubmissionRepo struct {
	shells    map[string]*model.Submission
	answers   map[string][]model.SubmissionAnswer
	deleted   []string
	appendErr error
	nextID    int
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		shells:  make(map[string]*model.Submission),
		answers: make(map[string][]model.SubmissionAnswer),
	}
}

func (f *fakeSubmissionRepo) CreateShell(_ context.Context, submission *model.Submission) (string, error) {
	f.nextID++
	id := fmt.Sprintf("sub_%d", f.nextID)
	cp := *submission
	cp.ID = id
	f.shells[id] = &cp
	return id, nil
}

func (f *fakeSubmissionRepo) Complete(_ context.Context, id string, meta model.SubmissionMetadata) error {
	shell, ok := f.shells[id]
	if !ok {
		return fmt.Errorf("submission %s not found", id)
	}
	shell.Metadata = meta
	return nil
}

func (f *fakeSubmissionRepo) AppendAnswers(_ context.Context, id string, answers []model.SubmissionAnswer) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	for i := range answers {
		answers[i].SubmissionID = id
	}
	f.answers[id] = append(f.answers[id], answers...)
	return nil
}

func (f *fakeSubmissionRepo) Delete(_ context.Context, id string) error {
	delete(f.shells, id)
	delete(f.answers, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	shell, ok := f.shells[id]
	if !ok {
		return nil, nil
	}
	cp := *shell
	return &cp, nil
}

func (f *fakeSubmissionRepo) GetBySurveyID(_ context.Context, surveyID string) ([]*model.Submission, error) {
	var out []*model.Submission
	for _, s := range f.shells {
		if s.SurveyID == surveyID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) GetAnswers(_ context.Context, id string) ([]*model.SubmissionAnswer, error) {
	var out []*model.SubmissionAnswer
	for i := range f.answers[id] {
		cp := f.answers[id][i]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeSubmissionRepo) CountAnswers(_ context.Context, id string) (int64, error) {
	return int64(len(f.answers[id])), nil
}

type fakeBankRepo struct {
	banks  map[string]*model.QuestionBank
	nextID int
}

func newFakeBankRepo() *fakeBankRepo {
	return &fakeBankRepo{banks: make(map[string]*model.QuestionBank)}
}

func (f *fakeBankRepo) Create(_ context.Context, bank *model.QuestionBank) (string, error) {
	f.nextID++
	id := fmt.Sprintf("bank_%d", f.nextID)
	cp := *bank
	cp.ID = id
	f.banks[id] = &cp
	return id, nil
}

func (f *fakeBankRepo) GetByID(_ context.Context, id string) (*model.QuestionBank, error) {
	bank, ok := f.banks[id]
	if !ok {
		return nil, nil
	}
	cp := *bank
	return &cp, nil
}

func (f *fakeBankRepo) GetByOwnerID(_ context.Context, ownerID string) ([]*model.QuestionBank, error) {
	var out []*model.QuestionBank
	for _, b := range f.banks {
		if b.OwnerID == ownerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBankRepo) Delete(_ context.Context, id string) error {
	delete(f.banks, id)
	return nil
}

type fakeSessionCache struct {
	sessions map[string]*model.Session
	answers  map[string]flow.AnswerSet
	cursors  map[string]*cache.CursorState
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		sessions: make(map[string]*model.Session),
		answers:  make(map[string]flow.AnswerSet),
		cursors:  make(map[string]*cache.CursorState),
	}
}

func (f *fakeSessionCache) SetSession(_ context.Context, session *model.Session) error {
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeSessionCache) GetSession(_ context.Context, sessionID string) (*model.Session, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (f *fakeSessionCache) SetAnswers(_ context.Context, sessionID string, answers flow.AnswerSet) error {
	f.answers[sessionID] = answers.Clone()
	return nil
}

func (f *fakeSessionCache) GetAnswers(_ context.Context, sessionID string) (flow.AnswerSet, error) {
	answers, ok := f.answers[sessionID]
	if !ok {
		return nil, nil
	}
	return answers.Clone(), nil
}

func (f *fakeSessionCache) SetCursor(_ context.Context, sessionID string, state *cache.CursorState) error {
	cp := *state
	if state.Cursor != nil {
		c := *state.Cursor
		cp.Cursor = &c
	}
	cp.Vetoed = append([]string(nil), state.Vetoed...)
	f.cursors[sessionID] = &cp
	return nil
}

func (f *fakeSessionCache) GetCursor(_ context.Context, sessionID string) (*cache.CursorState, error) {
	state, ok := f.cursors[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *state
	if state.Cursor != nil {
		c := *state.Cursor
		cp.Cursor = &c
	}
	cp.Vetoed = append([]string(nil), state.Vetoed...)
	return &cp, nil
}

func (f *fakeSessionCache) Delete(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	delete(f.answers, sessionID)
	delete(f.cursors, sessionID)
	return nil
}

type fakeGenerationCache struct {
	questions map[string][]model.Question
}

func newFakeGenerationCache() *fakeGenerationCache {
	return &fakeGenerationCache{questions: make(map[string][]model.Question)}
}

func (f *fakeGenerationCache) SetQuestions(_ context.Context, requestHash string, questions []model.Question) error {
	f.questions[requestHash] = append([]model.Question(nil), questions...)
	return nil
}

func (f *fakeGenerationCache) GetQuestions(_ context.Context, requestHash string) ([]model.Question, error) {
	questions, ok := f.questions[requestHash]
	if !ok {
		return nil, nil
	}
	return append([]model.Question(nil), questions...), nil
}

func (f *fakeGenerationCache) Delete(_ context.Context, requestHash string) error {
	delete(f.questions, requestHash)
	return nil
}

type fakeJudge struct {
	shouldAsk      func(q *model.Question, history []model.AnsweredQuestion) (*model.AskJudgment, error)
	validateAnswer func(q *model.Question, answer string) (*model.AnswerJudgment, error)
	askCalls       int
	validateCalls  int
}

func (j *fakeJudge) ShouldAsk(_ context.Context, q *model.Question, history []model.AnsweredQuestion) (*model.AskJudgment, error) {
	j.askCalls++
	if j.shouldAsk == nil {
		return &model.AskJudgment{Ask: true}, nil
	}
	return j.shouldAsk(q, history)
}

func (j *fakeJudge) ValidateAnswer(_ context.Context, q *model.Question, answer string) (*model.AnswerJudgment, error) {
	j.validateCalls++
	if j.validateAnswer == nil {
		return &model.AnswerJudgment{Valid: true}, nil
	}
	return j.validateAnswer(q, answer)
}

// geminiServer fakes the generateContent endpoint, wrapping text in the
// candidate envelope the real API returns.
func geminiServer(t *testing.T, text string, status int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{{"text": text}},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testAIConfig(baseURL string) *config.AIConfig {
	cfg := config.DefaultAIConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	cfg.TimeoutMS = 2000
	cfg.RequestsPerMinute = 6000
	return cfg
}
