package models

import (
	"context"

	"github.com/google/uuid"
)

// contextKey - приватный тип для ключей контекста, чтобы избежать коллизий.
type contextKey string

const (
	// UserContextKey используется как ключ для хранения PlayerID в контексте запроса.
	UserContextKey contextKey = "playerID"
	// SourceServiceContextKey используется для хранения идентификатора сервиса-источника
	// при межсервисных вызовах.
	SourceServiceContextKey contextKey = "sourceService"
)

// GetPlayerIDFromContext извлекает PlayerID из контекста.
// Возвращает ID и true, если ключ найден и значение корректного типа (uuid.UUID).
func GetPlayerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	playerID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	return playerID, ok
}
