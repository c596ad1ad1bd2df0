package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/cardgenio/cardgen-api/internal/domain"
	"github.com/cardgenio/cardgen-api/internal/platform/logger"
	"github.com/cardgenio/cardgen-api/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// psql builds queries with PostgreSQL-style positional placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// flashcardColumns is the column list shared by every flashcard SELECT.
var flashcardColumns = []string{
	"id", "user_id", "generation_id", "front", "back", "source", "created_at", "updated_at",
}

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of
// the FlashcardStore interface. If logger is nil, the default logger
// is used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// Create implements store.FlashcardStore.Create.
// Returns store.ErrInvalidEntity on validation failure or when a
// referenced user or generation does not exist.
func (s *PostgresFlashcardStore) Create(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during create",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO flashcards (id, user_id, generation_id, front, back, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.UserID,
		card.GenerationID,
		card.Front,
		card.Back,
		card.Source,
		card.CreatedAt,
		card.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during flashcard creation",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", card.ID.String()))
			return fmt.Errorf("%w: referenced user or generation not found", store.ErrInvalidEntity)
		}

		log.Error("failed to create flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	log.Info("flashcard created successfully",
		slog.String("flashcard_id", card.ID.String()),
		slog.String("user_id", card.UserID.String()),
		slog.String("source", string(card.Source)))
	return nil
}

// CreateBatch implements store.FlashcardStore.CreateBatch. All cards
// are inserted with a single multi-row statement, so the batch is
// atomic without a caller-managed transaction.
func (s *PostgresFlashcardStore) CreateBatch(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		return nil
	}

	builder := psql.Insert("flashcards").Columns(flashcardColumns...)
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("flashcard validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", card.ID.String()))
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
		builder = builder.Values(
			card.ID,
			card.UserID,
			card.GenerationID,
			card.Front,
			card.Back,
			card.Source,
			card.CreatedAt,
			card.UpdatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build batch insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			return fmt.Errorf("%w: referenced user or generation not found", store.ErrInvalidEntity)
		}

		log.Error("failed to batch create flashcards",
			slog.String("error", err.Error()),
			slog.Int("count", len(cards)))
		return err
	}

	log.Info("flashcards batch created",
		slog.Int("count", len(cards)),
		slog.String("user_id", cards[0].UserID.String()))
	return nil
}

// GetByID implements store.FlashcardStore.GetByID.
// Returns store.ErrFlashcardNotFound if the flashcard does not exist
// for the user.
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, generation_id, front, back, source, created_at, updated_at
		FROM flashcards
		WHERE id = $1 AND user_id = $2
	`

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("flashcard_id", id.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get flashcard by ID",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return nil, err
	}

	return card, nil
}

// Update implements store.FlashcardStore.Update.
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *PostgresFlashcardStore) Update(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during update",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE flashcards
		SET front = $1, back = $2, source = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		card.Front,
		card.Back,
		card.Source,
		card.UpdatedAt,
		card.ID,
		card.UserID,
	)
	if err != nil {
		log.Error("failed to update flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("flashcard not found for update",
			slog.String("flashcard_id", card.ID.String()))
		return store.ErrFlashcardNotFound
	}

	log.Info("flashcard updated successfully",
		slog.String("flashcard_id", card.ID.String()))
	return nil
}

// Delete implements store.FlashcardStore.Delete.
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *PostgresFlashcardStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM flashcards WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		log.Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("flashcard not found for delete",
			slog.String("flashcard_id", id.String()))
		return store.ErrFlashcardNotFound
	}

	log.Info("flashcard deleted successfully",
		slog.String("flashcard_id", id.String()))
	return nil
}

// List implements store.FlashcardStore.List. The query is assembled
// dynamically from the filter; the sort column is restricted to an
// allow-list.
func (s *PostgresFlashcardStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.FlashcardFilter,
) ([]*domain.Flashcard, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := sq.And{sq.Eq{"user_id": userID}}
	if filter.Source != "" {
		where = append(where, sq.Eq{"source": filter.Source})
	}
	if filter.GenerationID != nil {
		where = append(where, sq.Eq{"generation_id": *filter.GenerationID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"front": pattern},
			sq.ILike{"back": pattern},
		})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("flashcards").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		log.Error("failed to count flashcards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}

	query, args, err := psql.Select(flashcardColumns...).
		From("flashcards").
		Where(where).
		OrderBy(orderClause(filter)).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query flashcards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := []*domain.Flashcard{}
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			log.Error("failed to scan flashcard row",
				slog.String("error", err.Error()))
			return nil, 0, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, 0, err
	}

	return cards, total, nil
}

// orderClause picks the sort column from the allow-list and the
// direction from the filter.
func orderClause(filter store.FlashcardFilter) string {
	column := "created_at"
	if filter.SortBy == "updated_at" {
		column = "updated_at"
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	return column + " " + direction
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanFlashcard reads one flashcard row, mapping the nullable
// generation_id and the source column.
func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var card domain.Flashcard
	var generationID uuid.NullUUID
	var source string

	err := row.Scan(
		&card.ID,
		&card.UserID,
		&generationID,
		&card.Front,
		&card.Back,
		&source,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if generationID.Valid {
		card.GenerationID = &generationID.UUID
	}
	card.Source = domain.FlashcardSource(source)

	return &card, nil
}
