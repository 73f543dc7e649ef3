package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"zapagent/internal/config"
	"zapagent/internal/infrastructure"
	"zapagent/internal/interfaces/http"
	"zapagent/internal/repository"
	"zapagent/internal/usecases"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.DebugBypassSignature {
		log.Warn("DEBUG_BYPASS_SIGNATURE is enabled: webhook signatures are NOT verified")
	}

	// Secret store
	secrets, err := infrastructure.NewSecretBox(cfg.FernetSecretKey)
	if err != nil {
		log.WithError(err).Fatal("Invalid FERNET_SECRET_KEY")
	}

	// Connect to PostgreSQL
	pgClient, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer pgClient.Close()

	// Initialize Repositories
	tenantRepo := repository.NewTenantRepository(pgClient.Pool, secrets, log)
	conversationRepo := repository.NewConversationRepository(pgClient.Pool)
	sessionRepo := repository.NewSessionRepository(pgClient.Pool)
	adminRepo := repository.NewAdminRepository(pgClient.Pool)

	// Initialize Usecases & Services
	authUsecase := usecases.NewAuthUsecase(adminRepo, cfg.JWTSecret)
	if err := authUsecase.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.WithError(err).Warn("Failed to ensure admin user")
	}

	generator := infrastructure.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
	gate := usecases.NewPolicyGate(sessionRepo, log)
	dispatcher := usecases.NewProviderDispatcher(secrets, cfg.GraphAPIVersion, cfg.ZAPIBaseURL)

	webhookService := usecases.NewWebhookService(
		tenantRepo, conversationRepo, gate, generator, dispatcher, secrets,
		cfg.DebugBypassSignature, log)

	adminHandler := http.NewAdminHandler(tenantRepo, conversationRepo, secrets, log)
	middleware := http.NewMiddleware(cfg.JWTSecret, cfg.AdminAPIKey)

	// Setup HTTP server
	r := gin.Default()
	http.SetupRoutes(r, webhookService, authUsecase, adminHandler, pgClient.Pool, middleware, log)

	log.WithField("addr", cfg.ListenAddr).Info("Starting HTTP server")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.WithError(err).Fatal("HTTP server stopped")
	}
}
