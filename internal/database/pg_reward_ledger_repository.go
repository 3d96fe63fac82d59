package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

const (
	rewardLedgerFields = `id, player_id, source_id, kind, amount, applied_at`

	// ON CONFLICT DO NOTHING: повторное начисление той же награды не
	// вставляет строку, RowsAffected() == 0.
	insertRewardEntryQuery = `
        INSERT INTO reward_ledger (id, player_id, source_id, kind, amount, applied_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (player_id, source_id, kind) DO NOTHING
    `
	getRewardsBySourceQuery = `
        SELECT ` + rewardLedgerFields + `
        FROM reward_ledger
        WHERE player_id = $1 AND source_id = $2
        ORDER BY applied_at
    `
	listRewardsByPlayerQuery = `
        SELECT ` + rewardLedgerFields + `
        FROM reward_ledger
        WHERE player_id = $1
        ORDER BY applied_at
    `
	deleteRewardsByPlayerQuery = `DELETE FROM reward_ledger WHERE player_id = $1`
)

// Compile-time check to ensure pgRewardLedgerRepository implements the interface
var _ interfaces.RewardLedgerRepository = (*pgRewardLedgerRepository)(nil)

// pgRewardLedgerRepository is the PostgreSQL implementation of RewardLedgerRepository
type pgRewardLedgerRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgRewardLedgerRepository creates a new repository instance.
func NewPgRewardLedgerRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.RewardLedgerRepository {
	return &pgRewardLedgerRepository{
		db:     db,
		logger: logger.Named("PgRewardLedgerRepo"),
	}
}

// Insert добавляет запись в журнал наград.
// Возвращает false, если награда с таким (player_id, source_id, kind)
// уже начислена.
func (r *pgRewardLedgerRepository) Insert(ctx context.Context, querier interfaces.DBTX, entry *models.RewardLedgerEntry) (bool, error) {
	logFields := []zap.Field{
		zap.String("playerID", entry.PlayerID.String()),
		zap.String("sourceID", entry.SourceID),
		zap.String("kind", string(entry.Kind)),
		zap.Int64("amount", entry.Amount),
	}
	r.logger.Debug("Inserting reward ledger entry", logFields...)

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.AppliedAt.IsZero() {
		entry.AppliedAt = time.Now().UTC()
	}

	cmdTag, err := querier.Exec(ctx, insertRewardEntryQuery,
		entry.ID,
		entry.PlayerID,
		entry.SourceID,
		entry.Kind,
		entry.Amount,
		entry.AppliedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert reward ledger entry", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("ошибка записи в журнал наград: %w", err)
	}

	inserted := cmdTag.RowsAffected() > 0
	if !inserted {
		r.logger.Debug("Reward already recorded, insert skipped", logFields...)
	}
	return inserted, nil
}

// GetBySource возвращает все записи игрока для данного источника награды.
func (r *pgRewardLedgerRepository) GetBySource(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID, sourceID string) ([]models.RewardLedgerEntry, error) {
	logFields := []zap.Field{
		zap.String("playerID", playerID.String()),
		zap.String("sourceID", sourceID),
	}

	entries, err := r.queryEntries(ctx, querier, getRewardsBySourceQuery, playerID, sourceID)
	if err != nil {
		r.logger.Error("Failed to get reward entries by source", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения записей журнала наград: %w", err)
	}
	return entries, nil
}

// ListByPlayer возвращает весь журнал игрока в порядке начисления.
func (r *pgRewardLedgerRepository) ListByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) ([]models.RewardLedgerEntry, error) {
	logFields := []zap.Field{zap.String("playerID", playerID.String())}

	entries, err := r.queryEntries(ctx, querier, listRewardsByPlayerQuery, playerID)
	if err != nil {
		r.logger.Error("Failed to list reward ledger", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения журнала наград: %w", err)
	}
	return entries, nil
}

// DeleteByPlayer удаляет журнал игрока.
func (r *pgRewardLedgerRepository) DeleteByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) error {
	logFields := []zap.Field{zap.String("playerID", playerID.String())}
	r.logger.Debug("Deleting reward ledger for player", logFields...)

	cmdTag, err := querier.Exec(ctx, deleteRewardsByPlayerQuery, playerID)
	if err != nil {
		r.logger.Error("Failed to delete reward ledger", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка удаления журнала наград: %w", err)
	}

	r.logger.Info("Reward ledger deleted", append(logFields, zap.Int64("count", cmdTag.RowsAffected()))...)
	return nil
}

func (r *pgRewardLedgerRepository) queryEntries(ctx context.Context, querier interfaces.DBTX, query string, args ...interface{}) ([]models.RewardLedgerEntry, error) {
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.RewardLedgerEntry{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.RewardLedgerEntry, 0)
	if err := pgxscan.ScanAll(&entries, rows); err != nil {
		return nil, fmt.Errorf("ошибка сканирования записей журнала наград: %w", err)
	}
	return entries, nil
}
