package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// resetPuzzleAttempts сбрасывает счетчик попыток пазла (внутренний API).
// POST /internal/game/players/:player_id/puzzles/:puzzle_id/reset-attempts
func (h *GameHandler) resetPuzzleAttempts(c *gin.Context) {
	log := h.logger.With(zap.String("handler", "resetPuzzleAttempts"))

	playerIDStr := c.Param("player_id")
	playerID, err := uuid.Parse(playerIDStr)
	if err != nil {
		log.Warn("Invalid player ID format", zap.String("player_id", playerIDStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid player ID format"})
		return
	}
	puzzleID := c.Param("puzzle_id")

	var req ResetAttemptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid reset attempts request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: reason is required"})
		return
	}

	log.Info("Internal request to reset puzzle attempts",
		zap.Stringer("playerID", playerID),
		zap.String("puzzleID", puzzleID),
		zap.String("reason", req.Reason))

	if err := h.service.ResetPuzzleAttempts(c.Request.Context(), playerID, puzzleID, req.Reason); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// resetAlarm сбрасывает уровень тревоги игрока до нуля (внутренний API).
// POST /internal/game/players/:player_id/alarm/reset
func (h *GameHandler) resetAlarm(c *gin.Context) {
	log := h.logger.With(zap.String("handler", "resetAlarm"))

	playerIDStr := c.Param("player_id")
	playerID, err := uuid.Parse(playerIDStr)
	if err != nil {
		log.Warn("Invalid player ID format", zap.String("player_id", playerIDStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid player ID format"})
		return
	}

	var req ResetAlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid reset alarm request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: reason is required"})
		return
	}

	log.Info("Internal request to reset alarm level",
		zap.Stringer("playerID", playerID),
		zap.String("reason", req.Reason))

	if err := h.service.ResetAlarm(c.Request.Context(), playerID, req.Reason); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// grantItem добавляет предмет в инвентарь игрока (внутренний API).
// POST /internal/game/players/:player_id/items
func (h *GameHandler) grantItem(c *gin.Context) {
	log := h.logger.With(zap.String("handler", "grantItem"))

	playerIDStr := c.Param("player_id")
	playerID, err := uuid.Parse(playerIDStr)
	if err != nil {
		log.Warn("Invalid player ID format", zap.String("player_id", playerIDStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid player ID format"})
		return
	}

	var req GrantItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid grant item request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: item_id and quantity are required"})
		return
	}

	log.Info("Internal request to grant item",
		zap.Stringer("playerID", playerID),
		zap.String("itemID", req.ItemID),
		zap.Int("quantity", req.Quantity))

	if err := h.service.GrantItem(c.Request.Context(), playerID, req.ItemID, req.Quantity); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
