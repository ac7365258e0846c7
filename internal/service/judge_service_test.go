package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/model"
)

func TestJudgePermissiveWhenDisabled(t *testing.T) {
	cfg := disabledAIConfig()
	svc := NewJudgeService(cfg, NewGeminiClient(cfg))
	q := &model.Question{ID: "q1", Text: "What is your role?", Type: model.QuestionTypeText}

	ask, err := svc.ShouldAsk(context.Background(), q, nil)
	require.NoError(t, err)
	assert.True(t, ask.Ask)

	judgment, err := svc.ValidateAnswer(context.Background(), q, "engineer")
	require.NoError(t, err)
	assert.True(t, judgment.Valid)
}

func TestShouldAskParsesJudgment(t *testing.T) {
	server := geminiServer(t, "```json\n{\"ask\": false, \"reason\": \"covered by earlier answers\"}\n```", http.StatusOK, nil)
	defer server.Close()

	cfg := testAIConfig(server.URL)
	svc := NewJudgeService(cfg, NewGeminiClient(cfg))
	q := &model.Question{ID: "q1", Text: "Do you own a car?", Type: model.QuestionTypeYesNo}

	judgment, err := svc.ShouldAsk(context.Background(), q, []model.AnsweredQuestion{
		{Question: "How do you commute?", Answer: "I drive my car"},
	})
	require.NoError(t, err)
	assert.False(t, judgment.Ask)
	assert.Equal(t, "covered by earlier answers", judgment.Reason)
}

func TestValidateAnswerParsesJudgment(t *testing.T) {
	server := geminiServer(t, `{"valid": false, "suggestion": "Try naming a city"}`, http.StatusOK, nil)
	defer server.Close()

	cfg := testAIConfig(server.URL)
	svc := NewJudgeService(cfg, NewGeminiClient(cfg))
	q := &model.Question{ID: "q1", Text: "Where do you live?", Type: model.QuestionTypeText}

	judgment, err := svc.ValidateAnswer(context.Background(), q, "purple")
	require.NoError(t, err)
	assert.False(t, judgment.Valid)
	assert.Equal(t, "Try naming a city", judgment.Suggestion)
}

func TestJudgeSurfacesAPIError(t *testing.T) {
	server := geminiServer(t, "", http.StatusInternalServerError, nil)
	defer server.Close()

	cfg := testAIConfig(server.URL)
	svc := NewJudgeService(cfg, NewGeminiClient(cfg))
	q := &model.Question{ID: "q1", Text: "Anything?", Type: model.QuestionTypeText}

	_, err := svc.ShouldAsk(context.Background(), q, nil)
	assert.Error(t, err)

	_, err = svc.ValidateAnswer(context.Background(), q, "something")
	assert.Error(t, err)
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"ask": true}`, `{"ask": true}`},
		{"fenced", "```json\n{\"ask\": true}\n```", `{"ask": true}`},
		{"bare fence", "```\n{\"ask\": true}\n```", `{"ask": true}`},
		{"padded", "  {\"ask\": true}\n\n", `{"ask": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONResponse(tt.input))
		})
	}
}
