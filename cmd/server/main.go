package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/canvasslabs/canvass/internal/cache"
	"github.com/canvasslabs/canvass/internal/config"
	"github.com/canvasslabs/canvass/internal/repository"
	"github.com/canvasslabs/canvass/internal/service"
	"github.com/canvasslabs/canvass/internal/transport/rest"
	"github.com/canvasslabs/canvass/internal/transport/ws"
)

// @title Canvass Survey API
// @version 1.0
// @description Conversational survey engine with branching and per-session flow resolution
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	configPath := os.Getenv("CANVASS_CONFIG")
	if configPath == "" {
		configPath = "canvass.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	log.Printf("AI Config:")
	log.Printf("  Generate:   %s", cfg.AI.Models.Generate)
	log.Printf("  ShouldAsk:  %s", cfg.AI.Models.ShouldAsk)
	log.Printf("  Validate:   %s", cfg.AI.Models.Validate)
	if cfg.AI.IsEnabled() {
		log.Println("  API Key:    configured ✓")
	} else {
		log.Println("  API Key:    NOT SET (judge is permissive, generator uses drafts)")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	surveyRepo := repository.NewSurveyRepo(db)
	submissionRepo := repository.NewSubmissionRepo(db)
	bankRepo := repository.NewBankRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)
	genCache := cache.NewGenerationCache(rdb)

	// Initialize services
	gemini := service.NewGeminiClient(cfg.AI)
	judgeSvc := service.NewJudgeService(cfg.AI, gemini)
	generatorSvc := service.NewGeneratorService(cfg.AI, gemini, bankRepo, genCache)
	authSvc := service.NewAuthService(cfg)
	surveySvc := service.NewSurveyService(surveyRepo, submissionRepo, cfg.DefaultLanguage)
	bankSvc := service.NewBankService(bankRepo)
	sessionSvc := service.NewSessionService(surveyRepo, submissionRepo, sessionCache, judgeSvc, authSvc)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	sessionSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:      authSvc,
		SurveyService:    surveySvc,
		BankService:      bankSvc,
		GeneratorService: generatorSvc,
		SessionService:   sessionSvc,
		WSHub:            wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Printf("Builder auth: username=%s", cfg.BuilderUsername)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST/GET /v1/surveys")
		log.Println("  POST /v1/surveys/generate")
		log.Println("  POST/GET /v1/banks")
		log.Println("  POST /v1/surveys/{surveyId}/sessions")
		log.Println("  GET  /v1/sessions/{sessionId}/questions")
		log.Println("  POST /v1/sessions/{sessionId}/answers")
		log.Println("  POST /v1/sessions/{sessionId}/submit")
		log.Println("  WS  /v1/ws/surveys/{surveyId}/watch")
		log.Println("  WS  /v1/ws/sessions/{sessionId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
