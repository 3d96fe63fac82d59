package handler

import "heist-server/internal/models"

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// --- Запросы игрового API ---

// StartSessionRequest - тело запроса на старт сессии.
type StartSessionRequest struct {
	NewGame bool `json:"new_game"`
}

// SolvePuzzleRequest - тело запроса с ответом на пазл.
type SolvePuzzleRequest struct {
	Answer           string `json:"answer"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// AdvanceMissionRequest - тело запроса на переход к шагу миссии.
// Шаг присылает клиент, но сервер пересчитывает позицию сам.
type AdvanceMissionRequest struct {
	StepID string `json:"step_id" binding:"required"`
}

// ChangeRoomRequest - тело запроса на переход между комнатами.
type ChangeRoomRequest struct {
	ExitID string `json:"exit_id" binding:"required"`
}

// --- Запросы внутреннего (межсервисного) API ---

// ResetAttemptsRequest - тело запроса на сброс счетчика попыток.
type ResetAttemptsRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResetAlarmRequest - тело запроса на сброс уровня тревоги.
type ResetAlarmRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// GrantItemRequest - тело запроса на выдачу предмета игроку.
type GrantItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

// StartSessionResponse - ответ на старт сессии.
type StartSessionResponse struct {
	Created bool                  `json:"created"`
	Session *models.PlayerSession `json:"session"`
}
