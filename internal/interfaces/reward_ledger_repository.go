package interfaces

import (
	"context"

	"github.com/google/uuid"

	"heist-server/internal/models"
)

// RewardLedgerRepository определяет методы для работы с журналом наград
// (reward_ledger). Журнал append-only: уникальность по
// (player_id, source_id, kind) гарантирует идемпотентность начислений.
type RewardLedgerRepository interface {
	// Insert добавляет запись в журнал. Возвращает false, если запись с таким
	// (player_id, source_id, kind) уже существует (повторное начисление).
	Insert(ctx context.Context, querier DBTX, entry *models.RewardLedgerEntry) (bool, error)
	// GetBySource возвращает все записи игрока для данного источника награды.
	GetBySource(ctx context.Context, querier DBTX, playerID uuid.UUID, sourceID string) ([]models.RewardLedgerEntry, error)
	// ListByPlayer возвращает весь журнал игрока в порядке начисления.
	ListByPlayer(ctx context.Context, querier DBTX, playerID uuid.UUID) ([]models.RewardLedgerEntry, error)
	// DeleteByPlayer удаляет журнал игрока (сброс при поимке).
	DeleteByPlayer(ctx context.Context, querier DBTX, playerID uuid.UUID) error
}
