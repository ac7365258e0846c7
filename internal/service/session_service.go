package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/canvasslabs/canvass/internal/cache"
	"github.com/canvasslabs/canvass/internal/flow"
	"github.com/canvasslabs/canvass/internal/model"
	"github.com/canvasslabs/canvass/internal/repository"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSessionComplete    = errors.New("session has no more questions")
	ErrNotCurrentQuestion = errors.New("answer does not match the current question")
	ErrWrongMode          = errors.New("operation not available in this session mode")
	ErrQuestionNotFound   = errors.New("question not found")
)

// StartSessionRequest is the request body for starting a respondent session
type StartSessionRequest struct {
	RespondentName string            `json:"respondentName,omitempty" validate:"max=120"`
	Mode           model.SessionMode `json:"mode" validate:"required,oneof=chat form"`
}

// QuestionView is the respondent-facing shape of one question. Iteration is
// the slot a chat cursor points at; IterationCount tells form clients how
// many inputs to render.
type QuestionView struct {
	ID             string             `json:"id"`
	Text           string             `json:"text"`
	Type           model.QuestionType `json:"type"`
	Options        []model.Option     `json:"options,omitempty"`
	MinRange       *float64           `json:"minRange,omitempty"`
	MaxRange       *float64           `json:"maxRange,omitempty"`
	Iteration      int                `json:"iteration"`
	IterationCount int                `json:"iterationCount,omitempty"`
}

// StartSessionResponse is returned when a session is opened
type StartSessionResponse struct {
	SessionID   string            `json:"sessionId"`
	Token       string            `json:"token"`
	Mode        model.SessionMode `json:"mode"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Language    string            `json:"language,omitempty"`
	Question    *QuestionView     `json:"question,omitempty"`
	Done        bool              `json:"done"`
}

// FormView is the full visible question list with the stored answers
type FormView struct {
	Title     string         `json:"title"`
	Language  string         `json:"language,omitempty"`
	Questions []QuestionView `json:"questions"`
	Answers   flow.AnswerSet `json:"answers,omitempty"`
}

// AnswerPayload is the request body for recording a form answer
type AnswerPayload struct {
	Value     string   `json:"value,omitempty"`
	Values    []string `json:"values,omitempty"`
	Iteration *int     `json:"iteration,omitempty"`
}

// AnswerFeedback is the inline check result returned to form clients. It
// never blocks recording; full validation happens at submit.
type AnswerFeedback struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// ChatAnswerRequest is the request body for answering the current question
type ChatAnswerRequest struct {
	QuestionID string   `json:"questionId" validate:"required"`
	Iteration  int      `json:"iteration" validate:"min=0"`
	Value      string   `json:"value,omitempty"`
	Values     []string `json:"values,omitempty"`
}

// ChatAnswerResult reports whether the answer was accepted and what to ask next
type ChatAnswerResult struct {
	Accepted bool              `json:"accepted"`
	Errors   map[string]string `json:"errors,omitempty"`
	Next     *QuestionView     `json:"next,omitempty"`
	Done     bool              `json:"done"`
}

// SubmitResult reports submission success or the per-question errors
type SubmitResult struct {
	OK           bool              `json:"ok"`
	Errors       map[string]string `json:"errors,omitempty"`
	SubmissionID string            `json:"submissionId,omitempty"`
}

// SessionService drives respondent sessions from start to submission. Session
// state lives in Redis; a submission shell is created up front in MongoDB and
// either completed at submit or rolled back.
type SessionService struct {
	surveyRepo     repository.SurveyRepo
	submissionRepo repository.SubmissionRepo
	sessionCache   cache.SessionCache
	judge          flow.Judge
	authSvc        *AuthService
	broadcaster    Broadcaster
	group          singleflight.Group
}

// NewSessionService creates a new session service
func NewSessionService(
	surveyRepo repository.SurveyRepo,
	submissionRepo repository.SubmissionRepo,
	sessionCache cache.SessionCache,
	judge flow.Judge,
	authSvc *AuthService,
) *SessionService {
	return &SessionService{
		surveyRepo:     surveyRepo,
		submissionRepo: submissionRepo,
		sessionCache:   sessionCache,
		judge:          judge,
		authSvc:        authSvc,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// sessionJudge wraps the live judge with the session's recorded skip
// decisions. A question vetoed once stays vetoed for the whole session, and
// with inner unset the recorded decisions are replayed without model calls.
type sessionJudge struct {
	inner  flow.Judge
	vetoed map[string]bool
}

func newSessionJudge(inner flow.Judge, vetoed []string) *sessionJudge {
	set := make(map[string]bool, len(vetoed))
	for _, id := range vetoed {
		set[id] = true
	}
	return &sessionJudge{inner: inner, vetoed: set}
}

func (j *sessionJudge) ShouldAsk(ctx context.Context, q *model.Question, history []model.AnsweredQuestion) (*model.AskJudgment, error) {
	if j.vetoed[q.ID] {
		return &model.AskJudgment{Ask: false, Reason: "previously skipped"}, nil
	}
	if j.inner == nil {
		return &model.AskJudgment{Ask: true}, nil
	}
	judgment, err := j.inner.ShouldAsk(ctx, q, history)
	if err == nil && judgment != nil && !judgment.Ask {
		j.vetoed[q.ID] = true
	}
	return judgment, err
}

func (j *sessionJudge) ValidateAnswer(ctx context.Context, q *model.Question, answer string) (*model.AnswerJudgment, error) {
	if j.inner == nil {
		return &model.AnswerJudgment{Valid: true}, nil
	}
	return j.inner.ValidateAnswer(ctx, q, answer)
}

func (j *sessionJudge) list() []string {
	ids := make([]string, 0, len(j.vetoed))
	for id := range j.vetoed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// engine bundles the flow machinery built for one request against one survey
type engine struct {
	tree      *flow.Tree
	evaluator *flow.Evaluator
	resolver  *flow.Resolver
	validator *flow.Validator
	veto      *sessionJudge
}

// engineFor builds the flow engine for a survey. Chat sessions get the
// should-ask veto; form sessions show every structurally visible question.
// With live false the veto only replays recorded decisions, which keeps
// submit-time evaluation deterministic and free of model calls.
func (s *SessionService) engineFor(survey *model.Survey, mode model.SessionMode, vetoed []string, live bool) (*engine, error) {
	tree, err := flow.NewTree(survey.Questions)
	if err != nil {
		return nil, fmt.Errorf("stored survey %s is invalid: %w", survey.ID, err)
	}

	eng := &engine{tree: tree}
	var vetoJudge flow.Judge
	if mode == model.SessionModeChat {
		inner := s.judge
		if !live {
			inner = nil
		}
		eng.veto = newSessionJudge(inner, vetoed)
		vetoJudge = eng.veto
	}

	eng.evaluator = flow.NewEvaluator(tree, vetoJudge)
	eng.resolver = flow.NewResolver(eng.evaluator)
	eng.validator = flow.NewValidator(eng.evaluator, s.judge)
	return eng, nil
}

func (eng *engine) questionView(cur *flow.Cursor, answers flow.AnswerSet) *QuestionView {
	q := eng.tree.Question(cur.QuestionID)
	if q == nil {
		return nil
	}
	view := &QuestionView{
		ID:        q.ID,
		Text:      q.Text,
		Type:      q.Type,
		Options:   q.Options,
		MinRange:  q.MinRange,
		MaxRange:  q.MaxRange,
		Iteration: cur.Iteration,
	}
	if q.Iterative {
		view.IterationCount = eng.tree.IterationCount(q, answers)
	}
	return view
}

// Start opens a session for a survey and, in chat mode, resolves the first
// question. The submission shell is created immediately so an abandoned
// session leaves a traceable record until rollback removes it.
func (s *SessionService) Start(ctx context.Context, surveyID string, req *StartSessionRequest) (*StartSessionResponse, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	eng, err := s.engineFor(survey, req.Mode, nil, true)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	submissionID, err := s.submissionRepo.CreateShell(ctx, &model.Submission{
		SurveyID:       surveyID,
		RespondentName: req.RespondentName,
		Metadata: model.SubmissionMetadata{
			Mode:      req.Mode,
			Language:  survey.Language,
			StartedAt: now,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	session := &model.Session{
		ID:             "s_" + uuid.New().String()[:8],
		SurveyID:       surveyID,
		RespondentName: req.RespondentName,
		Mode:           req.Mode,
		Status:         model.SessionActive,
		SubmissionID:   submissionID,
		StartedAt:      now,
	}

	answers := flow.NewAnswerSet()
	var current *flow.Cursor
	if req.Mode == model.SessionModeChat {
		current = eng.resolver.First(ctx, answers)
		if current != nil {
			answers.MarkStarted(current.QuestionID)
		}
	}

	if err := s.sessionCache.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if err := s.sessionCache.SetAnswers(ctx, session.ID, answers); err != nil {
		return nil, fmt.Errorf("failed to store answers: %w", err)
	}
	if req.Mode == model.SessionModeChat {
		state := &cache.CursorState{Complete: current == nil, Cursor: current, Vetoed: eng.veto.list()}
		if err := s.sessionCache.SetCursor(ctx, session.ID, state); err != nil {
			return nil, fmt.Errorf("failed to store cursor: %w", err)
		}
	}

	token, err := s.authSvc.GenerateRespondentToken(session.ID, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToWatchers(surveyID, "session_started", map[string]interface{}{
			"sessionId":      session.ID,
			"respondentName": session.RespondentName,
			"mode":           session.Mode,
		})
	}

	resp := &StartSessionResponse{
		SessionID:   session.ID,
		Token:       token,
		Mode:        session.Mode,
		Title:       survey.Title,
		Description: survey.Description,
		Language:    survey.Language,
		Done:        req.Mode == model.SessionModeChat && current == nil,
	}
	if current != nil {
		resp.Question = eng.questionView(current, answers)
	}
	return resp, nil
}

func (s *SessionService) activeSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessionCache.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) answersFor(ctx context.Context, sessionID string) (flow.AnswerSet, error) {
	answers, err := s.sessionCache.GetAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	if answers == nil {
		answers = flow.NewAnswerSet()
	}
	return answers, nil
}

// vetoedFor returns the recorded skip decisions, which only chat sessions have
func (s *SessionService) vetoedFor(ctx context.Context, session *model.Session) ([]string, *cache.CursorState, error) {
	if session.Mode != model.SessionModeChat {
		return nil, nil, nil
	}
	state, err := s.sessionCache.GetCursor(ctx, session.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cursor: %w", err)
	}
	if state == nil {
		return nil, nil, fmt.Errorf("session %s has no cursor state", session.ID)
	}
	return state.Vetoed, state, nil
}

// VisibleQuestions returns the questions currently visible to the session,
// with the stored answers so clients can restore their state.
func (s *SessionService) VisibleQuestions(ctx context.Context, sessionID string) (*FormView, error) {
	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	survey, err := s.surveyRepo.GetByID(ctx, session.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	vetoed, _, err := s.vetoedFor(ctx, session)
	if err != nil {
		return nil, err
	}

	eng, err := s.engineFor(survey, session.Mode, vetoed, false)
	if err != nil {
		return nil, err
	}

	answers, err := s.answersFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	visible := eng.evaluator.VisibleQuestions(ctx, answers)
	views := make([]QuestionView, 0, len(visible))
	for _, q := range visible {
		view := QuestionView{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Options:  q.Options,
			MinRange: q.MinRange,
			MaxRange: q.MaxRange,
		}
		if q.Iterative {
			view.IterationCount = eng.tree.IterationCount(q, answers)
		}
		views = append(views, view)
	}

	return &FormView{
		Title:     survey.Title,
		Language:  survey.Language,
		Questions: views,
		Answers:   answers,
	}, nil
}

// SetAnswer records a form answer. Recording is permissive; the feedback only
// tells the client what submit would say about this one value.
func (s *SessionService) SetAnswer(ctx context.Context, sessionID, questionID string, payload *AnswerPayload) (*AnswerFeedback, error) {
	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Mode != model.SessionModeForm {
		return nil, ErrWrongMode
	}

	survey, err := s.surveyRepo.GetByID(ctx, session.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	eng, err := s.engineFor(survey, session.Mode, nil, false)
	if err != nil {
		return nil, err
	}

	q := eng.tree.Question(questionID)
	if q == nil {
		return nil, ErrQuestionNotFound
	}

	answers, err := s.answersFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answers.MarkStarted(questionID)
	switch {
	case q.Iterative:
		idx := 0
		if payload.Iteration != nil {
			idx = *payload.Iteration
		}
		answers.SetIteration(questionID, idx, payload.Value)
	case q.Type == model.QuestionTypeMultiChoice:
		answers.SetValues(questionID, payload.Values)
	default:
		answers.SetValue(questionID, payload.Value)
	}

	if err := s.sessionCache.SetAnswers(ctx, sessionID, answers); err != nil {
		return nil, fmt.Errorf("failed to store answers: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToWatchers(session.SurveyID, "session_progress", map[string]interface{}{
			"sessionId":  sessionID,
			"questionId": questionID,
		})
	}

	// Inline feedback sticks to structural checks; the semantic judge only
	// runs at submit so typing in a form never triggers model calls.
	quick := flow.NewValidator(eng.evaluator, nil)
	msg, ok := quick.CheckAnswer(ctx, q, payload.Value, payload.Values)
	return &AnswerFeedback{OK: ok, Message: msg}, nil
}

// Answer validates and records a chat answer for the current cursor position
// and advances the cursor. Concurrent duplicates of the same position collapse
// into one evaluation; anything not at the cursor is rejected.
func (s *SessionService) Answer(ctx context.Context, sessionID string, req *ChatAnswerRequest) (*ChatAnswerResult, error) {
	key := fmt.Sprintf("%s:%s:%d", sessionID, req.QuestionID, req.Iteration)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.answerCurrent(ctx, sessionID, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ChatAnswerResult), nil
}

func (s *SessionService) answerCurrent(ctx context.Context, sessionID string, req *ChatAnswerRequest) (*ChatAnswerResult, error) {
	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Mode != model.SessionModeChat {
		return nil, ErrWrongMode
	}

	vetoed, state, err := s.vetoedFor(ctx, session)
	if err != nil {
		return nil, err
	}
	if state.Complete || state.Cursor == nil {
		return nil, ErrSessionComplete
	}
	cur := *state.Cursor
	if cur.QuestionID != req.QuestionID || cur.Iteration != req.Iteration {
		return nil, ErrNotCurrentQuestion
	}

	survey, err := s.surveyRepo.GetByID(ctx, session.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	eng, err := s.engineFor(survey, session.Mode, vetoed, true)
	if err != nil {
		return nil, err
	}

	q := eng.tree.Question(cur.QuestionID)
	if q == nil {
		return nil, fmt.Errorf("current question %q no longer exists", cur.QuestionID)
	}

	answers, err := s.answersFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msg, ok := eng.validator.CheckAnswer(ctx, q, req.Value, req.Values)
	if !ok {
		return &ChatAnswerResult{
			Accepted: false,
			Errors:   map[string]string{flow.ErrorKey(q, cur.Iteration): msg},
		}, nil
	}

	switch {
	case q.Iterative:
		answers.SetIteration(q.ID, cur.Iteration, req.Value)
	case q.Type == model.QuestionTypeMultiChoice:
		answers.SetValues(q.ID, req.Values)
	default:
		answers.SetValue(q.ID, req.Value)
	}

	next, err := eng.resolver.Advance(ctx, cur, answers)
	if err != nil {
		return nil, err
	}
	if next != nil {
		answers.MarkStarted(next.QuestionID)
	}

	if err := s.sessionCache.SetAnswers(ctx, sessionID, answers); err != nil {
		return nil, fmt.Errorf("failed to store answers: %w", err)
	}
	newState := &cache.CursorState{Complete: next == nil, Cursor: next, Vetoed: eng.veto.list()}
	if err := s.sessionCache.SetCursor(ctx, sessionID, newState); err != nil {
		return nil, fmt.Errorf("failed to store cursor: %w", err)
	}

	result := &ChatAnswerResult{Accepted: true, Done: next == nil}
	if next != nil {
		result.Next = eng.questionView(next, answers)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToWatchers(session.SurveyID, "session_progress", map[string]interface{}{
			"sessionId":  sessionID,
			"questionId": q.ID,
		})
		if result.Done {
			s.broadcaster.BroadcastToSession(sessionID, "flow_complete", map[string]interface{}{})
		} else {
			s.broadcaster.BroadcastToSession(sessionID, "question", result.Next)
		}
	}

	return result, nil
}

// CurrentQuestion returns the chat cursor's question, or done when the flow
// is exhausted. Re-fetching is safe at any time; nothing advances here.
func (s *SessionService) CurrentQuestion(ctx context.Context, sessionID string) (*QuestionView, bool, error) {
	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if session.Mode != model.SessionModeChat {
		return nil, false, ErrWrongMode
	}

	vetoed, state, err := s.vetoedFor(ctx, session)
	if err != nil {
		return nil, false, err
	}
	if state.Complete || state.Cursor == nil {
		return nil, true, nil
	}

	survey, err := s.surveyRepo.GetByID(ctx, session.SurveyID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load survey: %w", err)
	}
	if survey == nil {
		return nil, false, ErrSurveyNotFound
	}

	eng, err := s.engineFor(survey, session.Mode, vetoed, false)
	if err != nil {
		return nil, false, err
	}

	answers, err := s.answersFor(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	return eng.questionView(state.Cursor, answers), false, nil
}

// Submit validates every visible answer and persists the submission. On any
// persistence failure the shell and the session are rolled back together so
// no half-written submission survives.
func (s *SessionService) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	survey, err := s.surveyRepo.GetByID(ctx, session.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	vetoed, _, err := s.vetoedFor(ctx, session)
	if err != nil {
		return nil, err
	}

	eng, err := s.engineFor(survey, session.Mode, vetoed, false)
	if err != nil {
		return nil, err
	}

	answers, err := s.answersFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := eng.validator.Validate(ctx, answers)
	if !result.OK() {
		return &SubmitResult{OK: false, Errors: result.Errors}, nil
	}

	rows := buildAnswerRows(ctx, eng, answers)

	persist := func() error {
		if len(rows) > 0 {
			if err := s.submissionRepo.AppendAnswers(ctx, session.SubmissionID, rows); err != nil {
				return fmt.Errorf("failed to persist answers: %w", err)
			}
		}
		now := time.Now()
		meta := model.SubmissionMetadata{
			Mode:        session.Mode,
			Language:    survey.Language,
			StartedAt:   session.StartedAt,
			SubmittedAt: now,
			DurationMS:  now.Sub(session.StartedAt).Milliseconds(),
		}
		if err := s.submissionRepo.Complete(ctx, session.SubmissionID, meta); err != nil {
			return fmt.Errorf("failed to complete submission: %w", err)
		}
		return nil
	}

	if err := persist(); err != nil {
		if delErr := s.submissionRepo.Delete(ctx, session.SubmissionID); delErr != nil {
			log.Printf("[Session] Rollback of submission %s failed: %v", session.SubmissionID, delErr)
		}
		if delErr := s.sessionCache.Delete(ctx, sessionID); delErr != nil {
			log.Printf("[Session] Cleanup of session %s failed: %v", sessionID, delErr)
		}
		return nil, err
	}

	if err := s.sessionCache.Delete(ctx, sessionID); err != nil {
		log.Printf("[Session] Cleanup of session %s failed: %v", sessionID, err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToWatchers(session.SurveyID, "session_submitted", map[string]interface{}{
			"sessionId":    sessionID,
			"submissionId": session.SubmissionID,
		})
		s.broadcaster.DisconnectSession(sessionID)
	}

	return &SubmitResult{OK: true, SubmissionID: session.SubmissionID}, nil
}

// buildAnswerRows flattens the answer set into one row per recorded value,
// covering only questions visible at submit time. Hidden answers are stale
// leftovers from branch changes and never reach storage.
func buildAnswerRows(ctx context.Context, eng *engine, answers flow.AnswerSet) []model.SubmissionAnswer {
	var rows []model.SubmissionAnswer
	for _, q := range eng.evaluator.VisibleQuestions(ctx, answers) {
		a := answers.Get(q.ID)
		if a == nil || a.Empty() {
			continue
		}

		switch {
		case q.Iterative:
			count := eng.tree.IterationCount(q, answers)
			for i := 0; i < count; i++ {
				iteration := i
				rows = append(rows, model.SubmissionAnswer{
					QuestionID:     q.ID,
					Iteration:      &iteration,
					Value:          a.IterationValue(i),
					StartedAt:      a.StartedAt,
					AnsweredAt:     a.AnsweredAt,
					TimeToAnswerMS: a.TimeToAnswerMS,
				})
			}
		case q.Type == model.QuestionTypeMultiChoice:
			rows = append(rows, model.SubmissionAnswer{
				QuestionID:     q.ID,
				Values:         a.Values,
				StartedAt:      a.StartedAt,
				AnsweredAt:     a.AnsweredAt,
				TimeToAnswerMS: a.TimeToAnswerMS,
			})
		default:
			rows = append(rows, model.SubmissionAnswer{
				QuestionID:     q.ID,
				Value:          a.Value,
				StartedAt:      a.StartedAt,
				AnsweredAt:     a.AnsweredAt,
				TimeToAnswerMS: a.TimeToAnswerMS,
			})
		}
	}
	return rows
}

// Abandon discards the session. The submission shell is removed when nothing
// was ever written to it, which is always the case until a successful submit.
func (s *SessionService) Abandon(ctx context.Context, sessionID string) error {
	session, err := s.sessionCache.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}

	count, err := s.submissionRepo.CountAnswers(ctx, session.SubmissionID)
	if err != nil {
		return fmt.Errorf("failed to check submission: %w", err)
	}
	if count == 0 {
		if err := s.submissionRepo.Delete(ctx, session.SubmissionID); err != nil {
			return fmt.Errorf("failed to roll back submission: %w", err)
		}
	}

	if err := s.sessionCache.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToWatchers(session.SurveyID, "session_abandoned", map[string]interface{}{
			"sessionId": sessionID,
		})
		s.broadcaster.DisconnectSession(sessionID)
	}

	return nil
}
