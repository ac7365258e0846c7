package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/config"
)

func newTestAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:       "test-secret",
		BuilderUsername: "builder",
		BuilderPassword: "hunter2",
	})
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.Login("builder", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("someone", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login("builder", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.BuilderID)
}

func TestBuilderTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService()

	resp, err := svc.Login("builder", "hunter2")
	require.NoError(t, err)

	claims, err := svc.ValidateBuilderToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.BuilderID, claims.BuilderID)
}

func TestRespondentTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService()

	token, err := svc.GenerateRespondentToken("s_abc123", "sv_1")
	require.NoError(t, err)

	claims, err := svc.ValidateRespondentToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s_abc123", claims.SessionID)
	assert.Equal(t, "sv_1", claims.SurveyID)
}

func TestValidateRejectsBadTokens(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.ValidateBuilderToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(&config.Config{JWTSecret: "different-secret"})
	token, err := other.GenerateRespondentToken("s_abc123", "sv_1")
	require.NoError(t, err)

	_, err = svc.ValidateRespondentToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
