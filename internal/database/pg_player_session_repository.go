package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

const (
	playerSessionFields = `player_id, current_room_id, bitcoin_balance, experience_points, level, alarm_level, completed_mission_ids, completed_puzzle_ids, inventory, first_alarm_explained, created_at, updated_at`

	insertPlayerSessionQuery = `
        INSERT INTO player_sessions
            (player_id, current_room_id, bitcoin_balance, experience_points, level, alarm_level, completed_mission_ids, completed_puzzle_ids, inventory, first_alarm_explained, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	updatePlayerSessionQuery = `
        UPDATE player_sessions SET
            current_room_id = $2,
            bitcoin_balance = $3,
            experience_points = $4,
            level = $5,
            alarm_level = $6,
            completed_mission_ids = $7,
            completed_puzzle_ids = $8,
            inventory = $9,
            first_alarm_explained = $10,
            updated_at = $11
            -- player_id and created_at never change
        WHERE player_id = $1
        RETURNING player_id
    `
	getPlayerSessionQuery = `
        SELECT ` + playerSessionFields + `
        FROM player_sessions
        WHERE player_id = $1
    `
	// NOWAIT: при конкурентном запросе того же игрока сразу получаем 55P03
	// вместо ожидания на блокировке.
	getPlayerSessionForUpdateQuery = getPlayerSessionQuery + ` FOR UPDATE NOWAIT`
)

// Код SQLSTATE lock_not_available, возвращаемый при FOR UPDATE NOWAIT.
const pgLockNotAvailable = "55P03"

// Compile-time check to ensure pgPlayerSessionRepository implements the interface
var _ interfaces.PlayerSessionRepository = (*pgPlayerSessionRepository)(nil)

// pgPlayerSessionRepository is the PostgreSQL implementation of PlayerSessionRepository
type pgPlayerSessionRepository struct {
	db     interfaces.DBTX // Can be *pgxpool.Pool or pgx.Tx
	logger *zap.Logger
}

// NewPgPlayerSessionRepository creates a new repository instance.
func NewPgPlayerSessionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.PlayerSessionRepository {
	return &pgPlayerSessionRepository{
		db:     db,
		logger: logger.Named("PgPlayerSessionRepo"),
	}
}

// Create вставляет новую сессию игрока.
func (r *pgPlayerSessionRepository) Create(ctx context.Context, querier interfaces.DBTX, session *models.PlayerSession) error {
	logFields := []zap.Field{zap.String("playerID", session.PlayerID.String())}
	r.logger.Debug("Inserting new player session", logFields...)

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	missionsJSON, puzzlesJSON, inventoryJSON, err := marshalSessionCollections(session)
	if err != nil {
		return err
	}

	_, err = querier.Exec(ctx, insertPlayerSessionQuery,
		session.PlayerID,
		session.CurrentRoomID,
		int64(session.BitcoinBalance),
		session.ExperiencePoints,
		session.Level,
		session.AlarmLevel,
		missionsJSON,
		puzzlesJSON,
		inventoryJSON,
		session.FirstAlarmExplained,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert player session", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка создания игровой сессии: %w", err)
	}

	r.logger.Info("Player session created successfully", logFields...)
	return nil
}

// GetByID возвращает сессию игрока без блокировки (для чтения состояния).
func (r *pgPlayerSessionRepository) GetByID(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) (*models.PlayerSession, error) {
	logFields := []zap.Field{zap.String("playerID", playerID.String())}
	r.logger.Debug("Getting player session", logFields...)

	row := querier.QueryRow(ctx, getPlayerSessionQuery, playerID)
	session, err := scanPlayerSession(row)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			r.logger.Warn("Player session not found", logFields...)
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Failed to get player session", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения игровой сессии: %w", err)
	}
	return session, nil
}

// GetForUpdate блокирует строку сессии на время транзакции.
// Все мутации состояния игрока проходят через эту блокировку, поэтому
// конкурентные запросы одного игрока сериализуются.
func (r *pgPlayerSessionRepository) GetForUpdate(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) (*models.PlayerSession, error) {
	logFields := []zap.Field{zap.String("playerID", playerID.String())}
	r.logger.Debug("Locking player session row", logFields...)

	row := querier.QueryRow(ctx, getPlayerSessionForUpdateQuery, playerID)
	session, err := scanPlayerSession(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			r.logger.Warn("Player session row is locked by another request", logFields...)
			return nil, models.ErrConcurrencyConflict
		}
		if errors.Is(err, models.ErrSessionNotFound) {
			r.logger.Warn("Player session not found for update", logFields...)
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Failed to lock player session", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка блокировки игровой сессии: %w", err)
	}
	return session, nil
}

// Update сохраняет изменяемые поля сессии.
func (r *pgPlayerSessionRepository) Update(ctx context.Context, querier interfaces.DBTX, session *models.PlayerSession) error {
	logFields := []zap.Field{
		zap.String("playerID", session.PlayerID.String()),
		zap.Int("alarmLevel", session.AlarmLevel),
	}
	r.logger.Debug("Updating player session", logFields...)

	session.UpdatedAt = time.Now().UTC()

	missionsJSON, puzzlesJSON, inventoryJSON, err := marshalSessionCollections(session)
	if err != nil {
		return err
	}

	var returnedID uuid.UUID
	err = querier.QueryRow(ctx, updatePlayerSessionQuery,
		session.PlayerID,
		session.CurrentRoomID,
		int64(session.BitcoinBalance),
		session.ExperiencePoints,
		session.Level,
		session.AlarmLevel,
		missionsJSON,
		puzzlesJSON,
		inventoryJSON,
		session.FirstAlarmExplained,
		session.UpdatedAt,
	).Scan(&returnedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("Failed to update player session: record not found", logFields...)
			return models.ErrSessionNotFound
		}
		r.logger.Error("Failed to update player session", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка сохранения игровой сессии: %w", err)
	}

	r.logger.Debug("Player session updated successfully", logFields...)
	return nil
}

// --- Helper methods (internal) ---

func marshalSessionCollections(session *models.PlayerSession) ([]byte, []byte, []byte, error) {
	missions := session.CompletedMissionIDs
	if missions == nil {
		missions = []string{}
	}
	puzzles := session.CompletedPuzzleIDs
	if puzzles == nil {
		puzzles = []string{}
	}
	inventory := session.Inventory
	if inventory == nil {
		inventory = map[string]int{}
	}

	missionsJSON, err := json.Marshal(missions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ошибка сериализации списка миссий: %w", err)
	}
	puzzlesJSON, err := json.Marshal(puzzles)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ошибка сериализации списка пазлов: %w", err)
	}
	inventoryJSON, err := json.Marshal(inventory)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ошибка сериализации инвентаря: %w", err)
	}
	return missionsJSON, puzzlesJSON, inventoryJSON, nil
}

// scanPlayerSession scans a single row into a PlayerSession struct.
// It handles potential ErrNoRows from QueryRow and returns models.ErrSessionNotFound.
func scanPlayerSession(row pgx.Row) (*models.PlayerSession, error) {
	session := &models.PlayerSession{}
	var balance int64
	var missionsJSON, puzzlesJSON, inventoryJSON []byte

	err := row.Scan(
		&session.PlayerID,
		&session.CurrentRoomID,
		&balance,
		&session.ExperiencePoints,
		&session.Level,
		&session.AlarmLevel,
		&missionsJSON,
		&puzzlesJSON,
		&inventoryJSON,
		&session.FirstAlarmExplained,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		// Don't log here, let the caller log with more context
		return nil, fmt.Errorf("ошибка сканирования строки игровой сессии: %w", err)
	}

	session.BitcoinBalance = models.Bitcoin(balance)
	if err := json.Unmarshal(missionsJSON, &session.CompletedMissionIDs); err != nil {
		return nil, fmt.Errorf("ошибка разбора списка миссий: %w", err)
	}
	if err := json.Unmarshal(puzzlesJSON, &session.CompletedPuzzleIDs); err != nil {
		return nil, fmt.Errorf("ошибка разбора списка пазлов: %w", err)
	}
	if err := json.Unmarshal(inventoryJSON, &session.Inventory); err != nil {
		return nil, fmt.Errorf("ошибка разбора инвентаря: %w", err)
	}
	return session, nil
}
