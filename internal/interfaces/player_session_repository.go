package interfaces

import (
	"context"

	"github.com/google/uuid"

	"heist-server/internal/models"
)

// PlayerSessionRepository определяет методы для работы с агрегатом игровой
// сессии (player_sessions). Все мутации выполняются внутри транзакции,
// открытой через GetForUpdate.
type PlayerSessionRepository interface {
	// Create создает новую сессию. Возвращает ошибку, если сессия уже существует.
	Create(ctx context.Context, querier DBTX, session *models.PlayerSession) error
	// GetByID возвращает сессию игрока или models.ErrSessionNotFound.
	GetByID(ctx context.Context, querier DBTX, playerID uuid.UUID) (*models.PlayerSession, error)
	// GetForUpdate блокирует строку сессии (FOR UPDATE NOWAIT) и возвращает ее.
	// Если строка уже заблокирована другим запросом, возвращает
	// models.ErrConcurrencyConflict.
	GetForUpdate(ctx context.Context, querier DBTX, playerID uuid.UUID) (*models.PlayerSession, error)
	// Update сохраняет все изменяемые поля сессии.
	Update(ctx context.Context, querier DBTX, session *models.PlayerSession) error
}
