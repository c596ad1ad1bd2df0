// Package postgres provides PostgreSQL implementations of the store
// interfaces.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/cardgenio/cardgen-api/internal/platform/logger"
	"github.com/cardgenio/cardgen-api/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const pgForeignKeyViolationCode = "23503"

// PostgresGenerationStore implements the store.GenerationStore
// interface using a PostgreSQL database as the storage backend.
type PostgresGenerationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationStore creates a new PostgreSQL implementation of
// the GenerationStore interface. It accepts a database connection or
// transaction managed by the caller. If logger is nil, the default
// logger is used.
func NewPostgresGenerationStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGenerationStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_store")),
	}
}

// Ensure PostgresGenerationStore implements store.GenerationStore interface
var _ store.GenerationStore = (*PostgresGenerationStore)(nil)

// CreateGeneration implements store.GenerationStore.CreateGeneration.
// Returns store.ErrInvalidEntity if the user ID doesn't exist
// (foreign key violation).
func (s *PostgresGenerationStore) CreateGeneration(ctx context.Context, generation *domain.Generation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := generation.Validate(); err != nil {
		log.Warn("generation validation failed during create",
			slog.String("error", err.Error()),
			slog.String("generation_id", generation.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO generations (id, user_id, model, source_text_length, source_text_hash, flashcards_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		generation.ID,
		generation.UserID,
		generation.Model,
		generation.SourceTextLength,
		generation.SourceTextHash,
		generation.FlashcardsGenerated,
		generation.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during generation creation",
				slog.String("error", err.Error()),
				slog.String("generation_id", generation.ID.String()),
				slog.String("user_id", generation.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, generation.UserID)
		}

		log.Error("failed to create generation",
			slog.String("error", err.Error()),
			slog.String("generation_id", generation.ID.String()),
			slog.String("user_id", generation.UserID.String()))
		return err
	}

	log.Info("generation created successfully",
		slog.String("generation_id", generation.ID.String()),
		slog.String("user_id", generation.UserID.String()),
		slog.Int("flashcards_generated", generation.FlashcardsGenerated))
	return nil
}

// CreateErrorLog implements store.GenerationStore.CreateErrorLog.
// Callers treat failures as non-fatal; the method still reports them
// so the caller can emit a diagnostic.
func (s *PostgresGenerationStore) CreateErrorLog(ctx context.Context, entry *domain.GenerationErrorLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO generation_error_logs (id, user_id, model, source_text_length, source_text_hash, error_type, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Model,
		entry.SourceTextLength,
		entry.SourceTextHash,
		entry.ErrorType,
		entry.ErrorMessage,
		entry.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create generation error log",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()),
			slog.String("error_type", entry.ErrorType))
		return err
	}

	log.Debug("generation error log created",
		slog.String("user_id", entry.UserID.String()),
		slog.String("error_type", entry.ErrorType))
	return nil
}

// GetGenerationByID implements store.GenerationStore.GetGenerationByID.
// Returns store.ErrGenerationNotFound if the generation does not exist
// for the user.
func (s *PostgresGenerationStore) GetGenerationByID(
	ctx context.Context,
	userID, id uuid.UUID,
) (*domain.Generation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, model, source_text_length, source_text_hash, flashcards_generated, created_at
		FROM generations
		WHERE id = $1 AND user_id = $2
	`

	var generation domain.Generation
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&generation.ID,
		&generation.UserID,
		&generation.Model,
		&generation.SourceTextLength,
		&generation.SourceTextHash,
		&generation.FlashcardsGenerated,
		&generation.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("generation not found", slog.String("generation_id", id.String()))
			return nil, store.ErrGenerationNotFound
		}
		log.Error("failed to get generation by ID",
			slog.String("error", err.Error()),
			slog.String("generation_id", id.String()))
		return nil, err
	}

	return &generation, nil
}

// ListGenerationsByUser implements
// store.GenerationStore.ListGenerationsByUser. Results are ordered
// newest first.
func (s *PostgresGenerationStore) ListGenerationsByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Generation, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM generations WHERE user_id = $1`
	if err := s.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		log.Error("failed to count generations",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, model, source_text_length, source_text_hash, flashcards_generated, created_at
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to query generations",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	generations := []*domain.Generation{}
	for rows.Next() {
		var generation domain.Generation
		err := rows.Scan(
			&generation.ID,
			&generation.UserID,
			&generation.Model,
			&generation.SourceTextLength,
			&generation.SourceTextHash,
			&generation.FlashcardsGenerated,
			&generation.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan generation row",
				slog.String("error", err.Error()))
			return nil, 0, err
		}
		generations = append(generations, &generation)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, 0, err
	}

	return generations, total, nil
}
