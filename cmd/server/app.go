package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cardgenio/cardgen-api/internal/config"
	"github.com/cardgenio/cardgen-api/internal/generation"
	"github.com/cardgenio/cardgen-api/internal/platform/openrouter"
	"github.com/cardgenio/cardgen-api/internal/platform/postgres"
	"github.com/cardgenio/cardgen-api/internal/service/auth"
	"github.com/cardgenio/cardgen-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	generationStore store.GenerationStore
	flashcardStore  store.FlashcardStore

	// Service interfaces
	jwtService        auth.JWTService
	chatClient        generation.ChatClient
	generationService *generation.GenerationService
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger,
// and database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize stores
	app.generationStore = postgres.NewPostgresGenerationStore(db, logger)
	app.flashcardStore = postgres.NewPostgresFlashcardStore(db, logger)

	// Create the completion client
	client, err := openrouter.NewClient(
		logger.With("component", "completion_client"),
		openrouter.ConfigFromLLM(cfg.LLM),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	client.SetSystemMessage(generation.SystemMessage(cfg.Generation.FlashcardsCount))
	app.chatClient = client
	logger.Info("Completion client initialized",
		"base_url", cfg.LLM.BaseURL,
		"model", cfg.LLM.ModelName)

	// Initialize generation service
	app.generationService, err = generation.NewGenerationService(
		logger,
		app.chatClient,
		app.generationStore,
		generation.Options{
			Model:           cfg.LLM.ModelName,
			FlashcardsCount: cfg.Generation.FlashcardsCount,
			Temperature:     cfg.Generation.Temperature,
			MaxTokens:       cfg.Generation.MaxTokens,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
