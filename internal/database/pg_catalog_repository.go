package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

const (
	getPuzzleQuery = `
        SELECT id, type, max_attempts, time_limit_seconds, case_sensitive, solution, solution_hash, allowed_commands, hints, reward_exp
        FROM puzzles
        WHERE id = $1
    `
	getMissionQuery = `
        SELECT id, steps, reward_bitcoins, reward_exp
        FROM missions
        WHERE id = $1
    `
	getRoomQuery = `
        SELECT id, required_level, required_items, required_puzzles, is_locked, exits
        FROM rooms
        WHERE id = $1
    `
)

// Compile-time check to ensure pgCatalogRepository implements the interface
var _ interfaces.CatalogRepository = (*pgCatalogRepository)(nil)

// pgCatalogRepository is the read-only PostgreSQL implementation of CatalogRepository.
// Таблицы каталога наполняются админ-сервисом, здесь только чтение.
type pgCatalogRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCatalogRepository creates a new repository instance.
func NewPgCatalogRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CatalogRepository {
	return &pgCatalogRepository{
		db:     db,
		logger: logger.Named("PgCatalogRepo"),
	}
}

// GetPuzzle возвращает определение пазла или models.ErrPuzzleNotFound.
func (r *pgCatalogRepository) GetPuzzle(ctx context.Context, puzzleID string) (*models.PuzzleDefinition, error) {
	logFields := []zap.Field{zap.String("puzzleID", puzzleID)}

	puzzle := &models.PuzzleDefinition{}
	var allowedJSON, hintsJSON []byte
	err := r.db.QueryRow(ctx, getPuzzleQuery, puzzleID).Scan(
		&puzzle.ID,
		&puzzle.Type,
		&puzzle.MaxAttempts,
		&puzzle.TimeLimitSeconds,
		&puzzle.CaseSensitive,
		&puzzle.Solution,
		&puzzle.SolutionHash,
		&allowedJSON,
		&hintsJSON,
		&puzzle.RewardExp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Puzzle not found in catalog", logFields...)
			return nil, models.ErrPuzzleNotFound
		}
		r.logger.Error("Failed to get puzzle from catalog", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения пазла из каталога: %w", err)
	}

	if err := json.Unmarshal(allowedJSON, &puzzle.AllowedCommands); err != nil {
		return nil, fmt.Errorf("ошибка разбора allowed_commands пазла %s: %w", puzzleID, err)
	}
	if err := json.Unmarshal(hintsJSON, &puzzle.Hints); err != nil {
		return nil, fmt.Errorf("ошибка разбора подсказок пазла %s: %w", puzzleID, err)
	}
	return puzzle, nil
}

// GetMission возвращает определение миссии или models.ErrMissionNotFound.
func (r *pgCatalogRepository) GetMission(ctx context.Context, missionID string) (*models.MissionDefinition, error) {
	logFields := []zap.Field{zap.String("missionID", missionID)}

	mission := &models.MissionDefinition{}
	var stepsJSON []byte
	var rewardSatoshi int64
	err := r.db.QueryRow(ctx, getMissionQuery, missionID).Scan(
		&mission.ID,
		&stepsJSON,
		&rewardSatoshi,
		&mission.RewardExp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Mission not found in catalog", logFields...)
			return nil, models.ErrMissionNotFound
		}
		r.logger.Error("Failed to get mission from catalog", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения миссии из каталога: %w", err)
	}

	mission.RewardBitcoins = models.Bitcoin(rewardSatoshi)
	if err := json.Unmarshal(stepsJSON, &mission.Steps); err != nil {
		return nil, fmt.Errorf("ошибка разбора шагов миссии %s: %w", missionID, err)
	}
	return mission, nil
}

// GetRoom возвращает определение комнаты или models.ErrRoomNotFound.
func (r *pgCatalogRepository) GetRoom(ctx context.Context, roomID string) (*models.RoomDefinition, error) {
	logFields := []zap.Field{zap.String("roomID", roomID)}

	room := &models.RoomDefinition{}
	var itemsJSON, puzzlesJSON, exitsJSON []byte
	err := r.db.QueryRow(ctx, getRoomQuery, roomID).Scan(
		&room.ID,
		&room.RequiredLevel,
		&itemsJSON,
		&puzzlesJSON,
		&room.IsLocked,
		&exitsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Room not found in catalog", logFields...)
			return nil, models.ErrRoomNotFound
		}
		r.logger.Error("Failed to get room from catalog", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения комнаты из каталога: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &room.RequiredItems); err != nil {
		return nil, fmt.Errorf("ошибка разбора required_items комнаты %s: %w", roomID, err)
	}
	if err := json.Unmarshal(puzzlesJSON, &room.RequiredPuzzles); err != nil {
		return nil, fmt.Errorf("ошибка разбора required_puzzles комнаты %s: %w", roomID, err)
	}
	if err := json.Unmarshal(exitsJSON, &room.Exits); err != nil {
		return nil, fmt.Errorf("ошибка разбора выходов комнаты %s: %w", roomID, err)
	}
	return room, nil
}
