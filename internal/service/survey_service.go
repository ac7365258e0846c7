package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canvasslabs/canvass/internal/flow"
	"github.com/canvasslabs/canvass/internal/model"
	"github.com/canvasslabs/canvass/internal/repository"
)

var ErrSurveyNotFound = errors.New("survey not found")

// SaveSurveyRequest is the request body for creating or updating a survey
type SaveSurveyRequest struct {
	Title       string           `json:"title" validate:"required,max=300"`
	Description string           `json:"description,omitempty" validate:"max=2000"`
	Language    string           `json:"language,omitempty" validate:"max=16"`
	Questions   []model.Question `json:"questions" validate:"required,min=1"`
}

// SurveyService handles survey CRUD operations. Question lists are checked
// structurally on every write so stored surveys always form a valid flow.
type SurveyService struct {
	surveyRepo      repository.SurveyRepo
	submissionRepo  repository.SubmissionRepo
	defaultLanguage string
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo, submissionRepo repository.SubmissionRepo, defaultLanguage string) *SurveyService {
	return &SurveyService{
		surveyRepo:      surveyRepo,
		submissionRepo:  submissionRepo,
		defaultLanguage: defaultLanguage,
	}
}

// Create validates and stores a new survey
func (s *SurveyService) Create(ctx context.Context, ownerID string, req *SaveSurveyRequest) (*model.Survey, error) {
	if _, err := flow.NewTree(req.Questions); err != nil {
		return nil, err
	}

	now := time.Now()
	survey := &model.Survey{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Language:    req.Language,
		Questions:   req.Questions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if survey.Language == "" {
		survey.Language = s.defaultLanguage
	}

	id, err := s.surveyRepo.Create(ctx, survey)
	if err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}
	survey.ID = id

	return survey, nil
}

// GetByID retrieves a survey by ID without an ownership check. Respondents
// starting a session go through this path.
func (s *SurveyService) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	return s.surveyRepo.GetByID(ctx, id)
}

// GetOwned retrieves a survey the owner created
func (s *SurveyService) GetOwned(ctx context.Context, ownerID, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey == nil || survey.OwnerID != ownerID {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

// List retrieves all surveys for an owner
func (s *SurveyService) List(ctx context.Context, ownerID string) ([]*model.Survey, error) {
	return s.surveyRepo.GetByOwnerID(ctx, ownerID)
}

// Update validates and replaces an existing survey
func (s *SurveyService) Update(ctx context.Context, ownerID, id string, req *SaveSurveyRequest) (*model.Survey, error) {
	existing, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if _, err := flow.NewTree(req.Questions); err != nil {
		return nil, err
	}

	existing.Title = strings.TrimSpace(req.Title)
	existing.Description = req.Description
	if req.Language != "" {
		existing.Language = req.Language
	}
	existing.Questions = req.Questions
	existing.UpdatedAt = time.Now()

	if err := s.surveyRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update survey: %w", err)
	}

	return existing, nil
}

// Delete removes a survey the owner created
func (s *SurveyService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.GetOwned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.surveyRepo.Delete(ctx, id)
}

// Submissions lists completed submissions for a survey the owner created
func (s *SurveyService) Submissions(ctx context.Context, ownerID, surveyID string) ([]*model.Submission, error) {
	if _, err := s.GetOwned(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}
	return s.submissionRepo.GetBySurveyID(ctx, surveyID)
}

// SubmissionAnswers returns the recorded answers of one submission
func (s *SurveyService) SubmissionAnswers(ctx context.Context, ownerID, surveyID, submissionID string) ([]*model.SubmissionAnswer, error) {
	if _, err := s.GetOwned(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}

	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission == nil || submission.SurveyID != surveyID {
		return nil, ErrSubmissionNotFound
	}

	return s.submissionRepo.GetAnswers(ctx, submissionID)
}
