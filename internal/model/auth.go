package model

import "github.com/golang-jwt/jwt/v5"

// BuilderClaims are JWT claims for builder authentication
type BuilderClaims struct {
	BuilderID string `json:"builderId"`
	jwt.RegisteredClaims
}

// RespondentClaims are JWT claims for session-scoped respondent tokens
type RespondentClaims struct {
	SessionID string `json:"sessionId"`
	SurveyID  string `json:"surveyId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for builder login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token     string `json:"token"`
	BuilderID string `json:"builderId"`
}
