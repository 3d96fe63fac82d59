package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// startSession создает сессию игрока или возвращает существующую.
// POST /game/session/start
func (h *GameHandler) startSession(c *gin.Context) {
	playerID, ok := h.getPlayerIDFromContext(c)
	if !ok {
		return
	}
	log := h.logger.With(zap.Stringer("playerID", playerID))

	// Тело опционально: пустое тело означает продолжение существующей сессии
	var req StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid start session request body", zap.Error(err))
			c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
			return
		}
	}

	session, created, err := h.service.StartSession(c.Request.Context(), playerID, req.NewGame)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		sessionsStartedTotal.Inc()
	}
	c.JSON(status, StartSessionResponse{Created: created, Session: session})
}

// getSessionState возвращает снимок последнего закоммиченного состояния сессии.
// GET /game/session
func (h *GameHandler) getSessionState(c *gin.Context) {
	playerID, ok := h.getPlayerIDFromContext(c)
	if !ok {
		return
	}

	session, err := h.service.GetSessionState(c.Request.Context(), playerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// solvePuzzle принимает ответ игрока на пазл.
// POST /game/puzzles/:puzzle_id/solve
func (h *GameHandler) solvePuzzle(c *gin.Context) {
	playerID, ok := h.getPlayerIDFromContext(c)
	if !ok {
		return
	}
	puzzleID := c.Param("puzzle_id")
	log := h.logger.With(zap.Stringer("playerID", playerID), zap.String("puzzleID", puzzleID))

	var req SolvePuzzleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid solve request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
		return
	}

	result, err := h.service.SolvePuzzle(c.Request.Context(), playerID, puzzleID, req.Answer, req.TimeSpentSeconds)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	puzzleSolvesTotal.WithLabelValues(solveOutcomeLabel(result)).Inc()
	if result.AlarmLevelIncreased {
		alarmEscalationsTotal.Inc()
	}
	if result.Caught {
		playersCaughtTotal.Inc()
	}
	c.JSON(http.StatusOK, result)
}

// getHint выдает очередную подсказку для пазла.
// POST /game/puzzles/:puzzle_id/hint
func (h *GameHandler) getHint(c *gin.Context) {
	playerID, ok := h.getPlayerIDFromContext(c)
	if !ok {
		return
	}
	puzzleID := c.Param("puzzle_id")

	result, err := h.service.GetHint(c.Request.Context(), playerID, puzzleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// getMissionProgress возвращает позицию возобновления миссии.
// GET /game/missions/:mission_id/progress
func (h *GameHandler) getMissionProgress(c *gin.Context) {
	playerID, ok := h.getPlayerIDFromContext(c)
	if !ok {
		return
	}
	missionID := c.Param("mission_id")

	progress, err := h.service.GetMissionProgress(c.Request.Context(), playerID, missionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// advanceMission валидирует шаг клиента и возвращает серверную позицию.
// POST /game/missions/:mission_id/advance
func (h *GameHandler) advanceMission(c *gin.Context) {
	playerID, ok := h.getPlayerIDFromContext(c)
	if !ok {
		return
	}
	missionID := c.Param("mission_id")
	log := h.logger.With(zap.Stringer("playerID", playerID), zap.String("missionID", missionID))

	var req AdvanceMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid advance mission request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: step_id is required"})
		return
	}

	progress, err := h.service.AdvanceMission(c.Request.Context(), playerID, missionID, req.StepID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// completeMission завершает миссию и начисляет награду (ровно один раз).
// POST /game/missions/:mission_id/complete
func (h *GameHandler) completeMission(c *gin.Context) {
	playerID, ok := h.getPlayerIDFromContext(c)
	if !ok {
		return
	}
	missionID := c.Param("mission_id")

	result, err := h.service.CompleteMission(c.Request.Context(), playerID, missionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !result.AlreadyCompleted {
		missionCompletionsTotal.Inc()
	}
	c.JSON(http.StatusOK, result)
}

// changeRoom выполняет переход игрока через выход текущей комнаты.
// POST /game/rooms/change
func (h *GameHandler) changeRoom(c *gin.Context) {
	playerID, ok := h.getPlayerIDFromContext(c)
	if !ok {
		return
	}
	log := h.logger.With(zap.Stringer("playerID", playerID))

	var req ChangeRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid change room request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: exit_id is required"})
		return
	}

	result, err := h.service.ChangeRoom(c.Request.Context(), playerID, req.ExitID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := "success"
	if !result.Success {
		status = "denied"
	}
	roomTransitionsTotal.WithLabelValues(status).Inc()
	c.JSON(http.StatusOK, result)
}
