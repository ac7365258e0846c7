package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/canvasslabs/canvass/internal/cache"
	"github.com/canvasslabs/canvass/internal/config"
	"github.com/canvasslabs/canvass/internal/flow"
	"github.com/canvasslabs/canvass/internal/model"
	"github.com/canvasslabs/canvass/internal/repository"
)

const defaultGenerateCount = 8

// GenerateRequest is the request body for generating survey questions
type GenerateRequest struct {
	Prompt       string   `json:"prompt" validate:"required,max=2000"`
	Instructions string   `json:"instructions,omitempty" validate:"max=2000"`
	Examples     []string `json:"examples,omitempty" validate:"max=20,dive,max=500"`
	BankID       string   `json:"bankId,omitempty"`
	Count        int      `json:"count,omitempty" validate:"omitempty,min=1,max=30"`
	Avoid        []string `json:"avoid,omitempty" validate:"max=20,dive,max=500"`
	Language     string   `json:"language,omitempty" validate:"max=16"`
}

// GeneratorService turns a builder's prompt into a draft question list. The
// draft is sanitized and structurally checked before it is returned, so the
// builder can save it as a survey without further fixes.
type GeneratorService struct {
	config *config.AIConfig
	gemini *GeminiClient
	banks  repository.BankRepo
	cache  cache.GenerationCache
}

// NewGeneratorService creates a new generator service
func NewGeneratorService(cfg *config.AIConfig, gemini *GeminiClient, banks repository.BankRepo, genCache cache.GenerationCache) *GeneratorService {
	return &GeneratorService{
		config: cfg,
		gemini: gemini,
		banks:  banks,
		cache:  genCache,
	}
}

// Generate produces a question list for the prompt. Identical requests are
// served from cache. When AI is disabled or the model returns something
// unusable, a mock draft is returned so the builder flow keeps working.
func (s *GeneratorService) Generate(ctx context.Context, ownerID string, req *GenerateRequest) ([]model.Question, error) {
	count := req.Count
	if count <= 0 {
		count = defaultGenerateCount
	}

	bankContent := ""
	if req.BankID != "" {
		bank, err := s.banks.GetByID(ctx, req.BankID)
		if err != nil {
			return nil, fmt.Errorf("failed to load question bank: %w", err)
		}
		if bank == nil || bank.OwnerID != ownerID {
			return nil, ErrBankNotFound
		}
		bankContent = bank.Content
	}

	key := cache.RequestHash(
		req.Prompt,
		req.Instructions,
		strings.Join(req.Examples, "\n"),
		bankContent,
		strconv.Itoa(count),
		strings.Join(req.Avoid, "\n"),
		req.Language,
	)

	if s.cache != nil {
		if cached, err := s.cache.GetQuestions(ctx, key); err != nil {
			log.Printf("[Generator] Cache read failed: %v", err)
		} else if len(cached) > 0 {
			return cached, nil
		}
	}

	if !s.config.IsEnabled() {
		log.Printf("[Generator] AI disabled, using mock questions")
		return s.mockQuestions(req, count), nil
	}

	prompt := s.buildGenerationPrompt(req, bankContent, count)

	response, err := s.gemini.Generate(ctx, s.config.Models.Generate, prompt)
	if err != nil {
		log.Printf("[Generator] Gemini call failed, using mock questions: %v", err)
		return s.mockQuestions(req, count), nil
	}

	questions, err := s.parseGeneration(response)
	if err != nil {
		log.Printf("[Generator] Unusable generation, using mock questions: %v", err)
		return s.mockQuestions(req, count), nil
	}

	if s.cache != nil {
		if err := s.cache.SetQuestions(ctx, key, questions); err != nil {
			log.Printf("[Generator] Cache write failed: %v", err)
		}
	}

	return questions, nil
}

// parseGeneration unmarshals the model output, rewrites its ids and cross
// references, and runs the structural checks a saved survey must pass.
func (s *GeneratorService) parseGeneration(response string) ([]model.Question, error) {
	var generated model.GeneratedSurvey
	if err := json.Unmarshal([]byte(cleanJSONResponse(response)), &generated); err != nil {
		return nil, fmt.Errorf("failed to parse generation: %w", err)
	}
	if len(generated.Questions) == 0 {
		return nil, fmt.Errorf("generation contained no questions")
	}

	questions := sanitizeQuestions(generated.Questions)

	if _, err := flow.NewTree(questions); err != nil {
		return nil, fmt.Errorf("generated questions are not a valid flow: %w", err)
	}

	return questions, nil
}

// sanitizeQuestions replaces model-invented ids with fresh ones and drops
// references the id rewrite cannot resolve. Models occasionally emit a parent
// or source id that does not exist; detaching beats failing the whole draft.
func sanitizeQuestions(raw []model.Question) []model.Question {
	questions := make([]model.Question, 0, len(raw))
	for _, q := range raw {
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		questions = append(questions, q)
	}

	idMap := make(map[string]string, len(questions))
	for i := range questions {
		fresh := "q_" + uuid.New().String()[:8]
		if questions[i].ID != "" {
			idMap[questions[i].ID] = fresh
		}
		questions[i].ID = fresh
	}

	for i := range questions {
		q := &questions[i]

		if q.ParentID != "" {
			mapped, ok := idMap[q.ParentID]
			if !ok || mapped == q.ID {
				q.ParentID = ""
				q.TriggerValue = ""
			} else {
				q.ParentID = mapped
			}
		}

		if q.SourceID != "" {
			mapped, ok := idMap[q.SourceID]
			if !ok || mapped == q.ID {
				q.SourceID = ""
			} else {
				q.SourceID = mapped
			}
		}
		if q.SourceID == "" {
			q.Iterative = false
		}

		if q.IsChoice() && len(q.Options) == 0 {
			q.Type = model.QuestionTypeText
		}
		if !q.IsChoice() {
			q.Options = nil
		}
		for j := range q.Options {
			if q.Options[j].ID == "" {
				q.Options[j].ID = "opt_" + uuid.New().String()[:8]
			}
		}
	}

	return questions
}

func (s *GeneratorService) buildGenerationPrompt(req *GenerateRequest, bankContent string, count int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are designing a survey. Create up to %d questions for this topic:

"%s"
`, count, req.Prompt)

	if req.Instructions != "" {
		fmt.Fprintf(&sb, "\nFollow these instructions from the survey designer:\n%s\n", req.Instructions)
	}
	if len(req.Examples) > 0 {
		fmt.Fprintf(&sb, "\nMatch the tone and specificity of these example questions:\n- %s\n", strings.Join(req.Examples, "\n- "))
	}
	if bankContent != "" {
		fmt.Fprintf(&sb, "\nDraw on this question bank where it fits the topic:\n%s\n", bankContent)
	}
	if len(req.Avoid) > 0 {
		fmt.Fprintf(&sb, "\nDo NOT ask about: %s\n", strings.Join(req.Avoid, "; "))
	}
	if req.Language != "" {
		fmt.Fprintf(&sb, "\nWrite every question in this language: %s\n", req.Language)
	}

	sb.WriteString(`
Question types: "text", "number", "yes-no", "multiple-choice", "multiple-choice-multi".
Give every question a unique id like "q1", "q2". A question may be conditional:
set parentQuestionId to an EARLIER question's id and triggerConditionValue to
the answer that reveals it (for yes-no parents use "Yes" or "No"; for choice
parents use an option text). A question may repeat once per counted thing: set
isIterative to true and iterativeSourceQuestionId to an EARLIER number
question's id. Use both sparingly, only where they clearly improve the survey.
Number questions may set minRange and maxRange. Choice questions need 2 to 6
options, each with id and text.

Return ONLY valid JSON in this exact format:
{
  "questions": [
    {
      "id": "q1",
      "text": "Do you own a car?",
      "type": "yes-no"
    },
    {
      "id": "q2",
      "text": "What model is it?",
      "type": "text",
      "parentQuestionId": "q1",
      "triggerConditionValue": "Yes"
    }
  ]
}`)

	return sb.String()
}

// mockQuestions is the fallback draft used without an API key. It exercises
// branching and iteration so the whole respondent flow can be tried locally.
func (s *GeneratorService) mockQuestions(req *GenerateRequest, count int) []model.Question {
	topic := strings.TrimSpace(req.Prompt)
	if topic == "" {
		topic = "this topic"
	}

	questions := []model.Question{
		{
			ID:   "q_" + uuid.New().String()[:8],
			Text: fmt.Sprintf("Have you had any experience with %s?", topic),
			Type: model.QuestionTypeYesNo,
		},
		{
			ID:   "q_" + uuid.New().String()[:8],
			Text: fmt.Sprintf("In a few words, what stood out about %s?", topic),
			Type: model.QuestionTypeText,
		},
		{
			ID:       "q_" + uuid.New().String()[:8],
			Text:     "How satisfied are you overall, from 1 to 10?",
			Type:     model.QuestionTypeNumber,
			MinRange: floatPtr(1),
			MaxRange: floatPtr(10),
		},
		{
			ID:   "q_" + uuid.New().String()[:8],
			Text: "Would you recommend it to a friend?",
			Type: model.QuestionTypeYesNo,
		},
		{
			ID:   "q_" + uuid.New().String()[:8],
			Text: "Who should we thank for the recommendation?",
			Type: model.QuestionTypeText,
		},
	}

	// Wire the branch and the follow-up so mock drafts show conditional flow.
	questions[4].ParentID = questions[3].ID
	questions[4].TriggerValue = "Yes"

	if count < len(questions) {
		questions = questions[:count]
	}
	return questions
}

func floatPtr(f float64) *float64 {
	return &f
}
