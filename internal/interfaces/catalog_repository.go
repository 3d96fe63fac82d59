package interfaces

import (
	"context"

	"heist-server/internal/models"
)

// CatalogRepository предоставляет доступ на чтение к контент-каталогу
// (пазлы, миссии, комнаты). Каталог авторится админ-сервисом и здесь
// не изменяется.
type CatalogRepository interface {
	// GetPuzzle возвращает определение пазла или models.ErrPuzzleNotFound.
	GetPuzzle(ctx context.Context, puzzleID string) (*models.PuzzleDefinition, error)
	// GetMission возвращает определение миссии или models.ErrMissionNotFound.
	GetMission(ctx context.Context, missionID string) (*models.MissionDefinition, error)
	// GetRoom возвращает определение комнаты или models.ErrRoomNotFound.
	GetRoom(ctx context.Context, roomID string) (*models.RoomDefinition, error)
}
