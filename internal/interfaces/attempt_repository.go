package interfaces

import (
	"context"

	"github.com/google/uuid"

	"heist-server/internal/models"
)

// AttemptRepository определяет методы для работы с записями попыток решения
// пазлов (attempt_records).
type AttemptRepository interface {
	// GetOrCreate возвращает запись попыток для пары (игрок, пазл),
	// создавая нулевую запись при первом обращении.
	GetOrCreate(ctx context.Context, querier DBTX, playerID uuid.UUID, puzzleID string) (*models.AttemptRecord, error)
	// Get возвращает запись попыток или models.ErrNotFound.
	Get(ctx context.Context, querier DBTX, playerID uuid.UUID, puzzleID string) (*models.AttemptRecord, error)
	// Update сохраняет изменяемые поля записи попыток.
	Update(ctx context.Context, querier DBTX, record *models.AttemptRecord) error
	// DeleteByPlayer удаляет все записи попыток игрока (сброс при поимке).
	DeleteByPlayer(ctx context.Context, querier DBTX, playerID uuid.UUID) error
}
