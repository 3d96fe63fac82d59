package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"heist-server/internal/middleware"
	"heist-server/internal/models"
	"heist-server/internal/service"
)

// GameHandler обрабатывает HTTP запросы игрового API.
type GameHandler struct {
	service  service.ProgressionService
	verifier middleware.TokenVerifier
	logger   *zap.Logger
}

// NewGameHandler создает новый GameHandler.
func NewGameHandler(s service.ProgressionService, verifier middleware.TokenVerifier, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		service:  s,
		verifier: verifier,
		logger:   logger.Named("GameHandler"),
	}
}

// RegisterRoutes регистрирует маршруты игрового и внутреннего API.
// solveMiddleware навешивается только на отправку ответов (rate limit).
func (h *GameHandler) RegisterRoutes(router *gin.Engine, solveMiddleware ...gin.HandlerFunc) {
	authMiddleware := middleware.AuthMiddleware(h.verifier, h.logger)

	gameGroup := router.Group("/game")
	gameGroup.Use(authMiddleware)
	{
		gameGroup.POST("/session/start", h.startSession)
		gameGroup.GET("/session", h.getSessionState)

		solveHandlers := append(append([]gin.HandlerFunc{}, solveMiddleware...), h.solvePuzzle)
		gameGroup.POST("/puzzles/:puzzle_id/solve", solveHandlers...)
		gameGroup.POST("/puzzles/:puzzle_id/hint", h.getHint)

		gameGroup.GET("/missions/:mission_id/progress", h.getMissionProgress)
		gameGroup.POST("/missions/:mission_id/advance", h.advanceMission)
		gameGroup.POST("/missions/:mission_id/complete", h.completeMission)

		gameGroup.POST("/rooms/change", h.changeRoom)
	}

	internalGroup := router.Group("/internal/game")
	internalGroup.Use(middleware.InterServiceAuthMiddleware(h.verifier, h.logger))
	{
		internalGroup.POST("/players/:player_id/puzzles/:puzzle_id/reset-attempts", h.resetPuzzleAttempts)
		internalGroup.POST("/players/:player_id/alarm/reset", h.resetAlarm)
		internalGroup.POST("/players/:player_id/items", h.grantItem)
	}
}

// getPlayerIDFromContext извлекает PlayerID, положенный auth middleware.
func (h *GameHandler) getPlayerIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	playerID, ok := models.GetPlayerIDFromContext(c.Request.Context())
	if !ok {
		h.logger.Error("PlayerID missing in request context", zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
	}
	return playerID, ok
}

// handleServiceError транслирует ошибки сервиса в HTTP статусы.
func (h *GameHandler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		message = "Player session not found"
	case errors.Is(err, models.ErrPuzzleNotFound):
		statusCode = http.StatusNotFound
		message = "Puzzle not found"
	case errors.Is(err, models.ErrMissionNotFound):
		statusCode = http.StatusNotFound
		message = "Mission not found"
	case errors.Is(err, models.ErrRoomNotFound):
		statusCode = http.StatusNotFound
		message = "Room not found"
	case errors.Is(err, models.ErrExitNotFound):
		statusCode = http.StatusNotFound
		message = "Exit not found in current room"
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Not found"
	case errors.Is(err, models.ErrConcurrencyConflict):
		// Другая операция этого игрока еще выполняется, клиент должен повторить
		statusCode = http.StatusConflict
		message = "Another operation for this player is in progress, retry later"
	case errors.Is(err, models.ErrMissionNotCompleted):
		statusCode = http.StatusConflict
		message = "Mission requirements are not met"
	case errors.Is(err, service.ErrNoHintsAvailable):
		statusCode = http.StatusConflict
		message = "No more hints available for this puzzle"
	case errors.Is(err, service.ErrUnknownMissionStep):
		statusCode = http.StatusBadRequest
		message = "Unknown mission step"
	case errors.Is(err, service.ErrInvalidItemGrant):
		statusCode = http.StatusBadRequest
		message = "Invalid item grant parameters"
	case errors.Is(err, models.ErrContentInvalid):
		h.logger.Error("Game content is invalid", zap.Error(err))
		statusCode = http.StatusInternalServerError
		message = "Game content configuration error"
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal error occurred"
	}

	c.AbortWithStatusJSON(statusCode, APIError{Message: message})
}
