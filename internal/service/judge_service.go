package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/canvasslabs/canvass/internal/config"
	"github.com/canvasslabs/canvass/internal/model"
)

// JudgeService asks Gemini to make per-question judgments during a session:
// whether an upcoming question is still worth asking, and whether a free-text
// answer plausibly responds to its question. Callers own the failure policy;
// this service just reports errors.
type JudgeService struct {
	config *config.AIConfig
	gemini *GeminiClient
}

// NewJudgeService creates a new judge service
func NewJudgeService(cfg *config.AIConfig, gemini *GeminiClient) *JudgeService {
	return &JudgeService{
		config: cfg,
		gemini: gemini,
	}
}

// ShouldAsk decides whether the question still needs to be asked given the
// answers collected so far. Without an API key every question is asked.
func (s *JudgeService) ShouldAsk(ctx context.Context, question *model.Question, history []model.AnsweredQuestion) (*model.AskJudgment, error) {
	if !s.config.IsEnabled() {
		return &model.AskJudgment{Ask: true, Reason: "AI disabled"}, nil
	}

	prompt := s.buildShouldAskPrompt(question, history)

	response, err := s.gemini.Generate(ctx, s.config.Models.ShouldAsk, prompt)
	if err != nil {
		return nil, fmt.Errorf("should-ask call failed: %w", err)
	}

	var judgment model.AskJudgment
	if err := json.Unmarshal([]byte(cleanJSONResponse(response)), &judgment); err != nil {
		return nil, fmt.Errorf("failed to parse should-ask judgment: %w", err)
	}

	return &judgment, nil
}

// ValidateAnswer checks whether a free-text answer plausibly responds to the
// question. Without an API key every answer is accepted.
func (s *JudgeService) ValidateAnswer(ctx context.Context, question *model.Question, answer string) (*model.AnswerJudgment, error) {
	if !s.config.IsEnabled() {
		return &model.AnswerJudgment{Valid: true}, nil
	}

	prompt := s.buildValidatePrompt(question, answer)

	response, err := s.gemini.Generate(ctx, s.config.Models.Validate, prompt)
	if err != nil {
		return nil, fmt.Errorf("answer validation call failed: %w", err)
	}

	var judgment model.AnswerJudgment
	if err := json.Unmarshal([]byte(cleanJSONResponse(response)), &judgment); err != nil {
		return nil, fmt.Errorf("failed to parse answer judgment: %w", err)
	}

	return &judgment, nil
}

func (s *JudgeService) buildShouldAskPrompt(question *model.Question, history []model.AnsweredQuestion) string {
	var sb strings.Builder
	for _, h := range history {
		sb.WriteString(fmt.Sprintf("- Q: %s\n  A: %s\n", h.Question, h.Answer))
	}
	answered := sb.String()
	if answered == "" {
		answered = "(nothing answered yet)\n"
	}

	return fmt.Sprintf(`You are pacing a conversational survey. The next question in the flow is:

"%s"

Answers collected so far:
%s
Decide whether the next question is still worth asking. Skip it only when the
answers above already clearly contain the information it would collect. When
in doubt, ask.

Return ONLY valid JSON in this exact format:
{
  "ask": true,
  "reason": "one short sentence"
}`, question.Text, answered)
}

func (s *JudgeService) buildValidatePrompt(question *model.Question, answer string) string {
	expected := ""
	if len(question.ExpectedAnswers) > 0 {
		expected = fmt.Sprintf("\nExamples of reasonable answers: %s\n", strings.Join(question.ExpectedAnswers, "; "))
	}

	return fmt.Sprintf(`You are checking a single survey answer.

Question: "%s"
Answer: "%s"
%s
Accept the answer if a reasonable person could mean it as a response to the
question. Reject only answers that are clearly off-topic or nonsense. When
rejecting, phrase the suggestion as one short, friendly hint the respondent
will see next to the question.

Return ONLY valid JSON in this exact format:
{
  "valid": true,
  "suggestion": ""
}`, question.Text, answer, expected)
}

// cleanJSONResponse strips markdown code fences that some models wrap around
// JSON output despite the response MIME type.
func cleanJSONResponse(response string) string {
	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
