package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound        = errors.New("resource not found") // General not found
	ErrSessionNotFound = errors.New("player session not found")
	ErrPuzzleNotFound  = errors.New("puzzle not found in catalog")
	ErrMissionNotFound = errors.New("mission not found in catalog")
	ErrRoomNotFound    = errors.New("room not found in catalog")
	ErrExitNotFound    = errors.New("exit not found in current room")

	// Game-rule outcomes surfaced as errors
	ErrAlreadyCompleted    = errors.New("puzzle already completed")
	ErrMissionNotCompleted = errors.New("mission has unsolved puzzle steps")

	// ErrConcurrencyConflict возвращается, когда две мутирующие операции для одного
	// игрока пересеклись. Проигравший вызов должен быть повторен вызывающей стороной.
	ErrConcurrencyConflict = errors.New("concurrent operation for the same player in progress")

	// ErrContentInvalid сигнализирует об ошибке авторского контента (например, шаг миссии
	// ссылается на несуществующий пазл). Никогда не скрывается молча.
	ErrContentInvalid = errors.New("content catalog definition is invalid")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Auth Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
