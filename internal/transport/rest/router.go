package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/canvasslabs/canvass/internal/service"
	"github.com/canvasslabs/canvass/internal/transport/rest/handler"
	"github.com/canvasslabs/canvass/internal/transport/rest/middleware"
	"github.com/canvasslabs/canvass/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	SurveyService    *service.SurveyService
	BankService      *service.BankService
	GeneratorService *service.GeneratorService
	SessionService   *service.SessionService
	WSHub            *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService, c.GeneratorService)
	bankHandler := handler.NewBankHandler(c.BankService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/surveys/{surveyId}/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/surveys/{surveyId}/watch", wsHandler.WatchWS).Methods("GET")
	v1.HandleFunc("/ws/sessions/{sessionId}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Builder routes (require builder auth)
	builderRoutes := v1.NewRoute().Subrouter()
	builderRoutes.Use(authMW.RequireBuilder)

	builderRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	builderRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	builderRoutes.HandleFunc("/surveys/generate", surveyHandler.Generate).Methods("POST", "OPTIONS")
	builderRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")
	builderRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Update).Methods("PUT", "OPTIONS")
	builderRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Delete).Methods("DELETE", "OPTIONS")
	builderRoutes.HandleFunc("/surveys/{surveyId}/submissions", surveyHandler.Submissions).Methods("GET", "OPTIONS")
	builderRoutes.HandleFunc("/surveys/{surveyId}/submissions/{submissionId}", surveyHandler.SubmissionAnswers).Methods("GET", "OPTIONS")
	builderRoutes.HandleFunc("/banks", bankHandler.Create).Methods("POST", "OPTIONS")
	builderRoutes.HandleFunc("/banks", bankHandler.List).Methods("GET", "OPTIONS")
	builderRoutes.HandleFunc("/banks/{bankId}", bankHandler.Delete).Methods("DELETE", "OPTIONS")

	// Respondent routes (require session token)
	respondentRoutes := v1.NewRoute().Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)

	respondentRoutes.HandleFunc("/sessions/{sessionId}/questions", sessionHandler.Questions).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/sessions/{sessionId}/question/current", sessionHandler.CurrentQuestion).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/sessions/{sessionId}/answers", sessionHandler.Answer).Methods("POST", "OPTIONS")
	respondentRoutes.HandleFunc("/sessions/{sessionId}/answers/{questionId}", sessionHandler.SetAnswer).Methods("PUT", "OPTIONS")
	respondentRoutes.HandleFunc("/sessions/{sessionId}/submit", sessionHandler.Submit).Methods("POST", "OPTIONS")
	respondentRoutes.HandleFunc("/sessions/{sessionId}", sessionHandler.Abandon).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
