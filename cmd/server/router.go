package main

import (
	"net/http"

	"github.com/cardgenio/cardgen-api/internal/api"
	apiMiddleware "github.com/cardgenio/cardgen-api/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware. It accepts the application dependencies to
// create handlers and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware) // Add trace IDs for improved error handling

	// Create API handlers using the application's services
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	generationHandler := api.NewGenerationHandler(app.generationService, app.generationStore)
	flashcardHandler := api.NewFlashcardHandler(app.flashcardStore)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Generation endpoints
			r.Post("/generations", generationHandler.CreateGeneration)
			r.Get("/generations", generationHandler.ListGenerations)
			r.Get("/generations/{id}", generationHandler.GetGeneration)

			// Flashcard endpoints
			r.Post("/flashcards", flashcardHandler.CreateFlashcard)
			r.Post("/flashcards/batch", flashcardHandler.BatchCreateFlashcards)
			r.Get("/flashcards", flashcardHandler.ListFlashcards)
			r.Get("/flashcards/{id}", flashcardHandler.GetFlashcard)
			r.Put("/flashcards/{id}", flashcardHandler.UpdateFlashcard)
			r.Delete("/flashcards/{id}", flashcardHandler.DeleteFlashcard)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
