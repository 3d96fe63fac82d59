package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

const (
	attemptRecordFields = `player_id, puzzle_id, attempts, hints_used, best_time_seconds, completed_at, updated_at`

	getOrCreateAttemptQuery = `
        INSERT INTO attempt_records (player_id, puzzle_id, attempts, hints_used, updated_at)
        VALUES ($1, $2, 0, 0, $3)
        ON CONFLICT (player_id, puzzle_id) DO UPDATE SET player_id = attempt_records.player_id
        RETURNING ` + attemptRecordFields

	getAttemptQuery = `
        SELECT ` + attemptRecordFields + `
        FROM attempt_records
        WHERE player_id = $1 AND puzzle_id = $2
    `
	updateAttemptQuery = `
        UPDATE attempt_records SET
            attempts = $3,
            hints_used = $4,
            best_time_seconds = $5,
            completed_at = $6,
            updated_at = $7
        WHERE player_id = $1 AND puzzle_id = $2
        RETURNING player_id
    `
	deleteAttemptsByPlayerQuery = `DELETE FROM attempt_records WHERE player_id = $1`
)

// Compile-time check to ensure pgAttemptRepository implements the interface
var _ interfaces.AttemptRepository = (*pgAttemptRepository)(nil)

// pgAttemptRepository is the PostgreSQL implementation of AttemptRepository
type pgAttemptRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgAttemptRepository creates a new repository instance.
func NewPgAttemptRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.AttemptRepository {
	return &pgAttemptRepository{
		db:     db,
		logger: logger.Named("PgAttemptRepo"),
	}
}

// GetOrCreate возвращает запись попыток, создавая нулевую при первом обращении.
// Фиктивный DO UPDATE нужен, чтобы RETURNING сработал и для существующей строки.
func (r *pgAttemptRepository) GetOrCreate(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID, puzzleID string) (*models.AttemptRecord, error) {
	logFields := []zap.Field{
		zap.String("playerID", playerID.String()),
		zap.String("puzzleID", puzzleID),
	}
	r.logger.Debug("Getting or creating attempt record", logFields...)

	row := querier.QueryRow(ctx, getOrCreateAttemptQuery, playerID, puzzleID, time.Now().UTC())
	record, err := scanAttemptRecord(row)
	if err != nil {
		r.logger.Error("Failed to get or create attempt record", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения записи попыток: %w", err)
	}
	return record, nil
}

// Get возвращает запись попыток или models.ErrNotFound.
func (r *pgAttemptRepository) Get(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID, puzzleID string) (*models.AttemptRecord, error) {
	logFields := []zap.Field{
		zap.String("playerID", playerID.String()),
		zap.String("puzzleID", puzzleID),
	}

	row := querier.QueryRow(ctx, getAttemptQuery, playerID, puzzleID)
	record, err := scanAttemptRecord(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Debug("Attempt record not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get attempt record", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения записи попыток: %w", err)
	}
	return record, nil
}

// Update сохраняет изменяемые поля записи попыток.
func (r *pgAttemptRepository) Update(ctx context.Context, querier interfaces.DBTX, record *models.AttemptRecord) error {
	logFields := []zap.Field{
		zap.String("playerID", record.PlayerID.String()),
		zap.String("puzzleID", record.PuzzleID),
		zap.Int("attempts", record.Attempts),
	}
	r.logger.Debug("Updating attempt record", logFields...)

	record.UpdatedAt = time.Now().UTC()

	var returnedID uuid.UUID
	err := querier.QueryRow(ctx, updateAttemptQuery,
		record.PlayerID,
		record.PuzzleID,
		record.Attempts,
		record.HintsUsed,
		record.BestTimeSeconds,
		record.CompletedAt,
		record.UpdatedAt,
	).Scan(&returnedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("Failed to update attempt record: record not found", logFields...)
			return models.ErrNotFound
		}
		r.logger.Error("Failed to update attempt record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка сохранения записи попыток: %w", err)
	}
	return nil
}

// DeleteByPlayer удаляет все записи попыток игрока.
func (r *pgAttemptRepository) DeleteByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) error {
	logFields := []zap.Field{zap.String("playerID", playerID.String())}
	r.logger.Debug("Deleting attempt records for player", logFields...)

	cmdTag, err := querier.Exec(ctx, deleteAttemptsByPlayerQuery, playerID)
	if err != nil {
		r.logger.Error("Failed to delete attempt records", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка удаления записей попыток: %w", err)
	}

	r.logger.Info("Attempt records deleted", append(logFields, zap.Int64("count", cmdTag.RowsAffected()))...)
	return nil
}

// scanAttemptRecord scans a single row into an AttemptRecord struct.
func scanAttemptRecord(row pgx.Row) (*models.AttemptRecord, error) {
	record := &models.AttemptRecord{}
	err := row.Scan(
		&record.PlayerID,
		&record.PuzzleID,
		&record.Attempts,
		&record.HintsUsed,
		&record.BestTimeSeconds,
		&record.CompletedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования строки записи попыток: %w", err)
	}
	return record, nil
}
