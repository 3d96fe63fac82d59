package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

// Имена предикатов разблокировки, возвращаемые в RoomTransitionResult.
const (
	PredicateIsLocked        = "isLocked"
	PredicateRequiredLevel   = "requiredLevel"
	PredicateRequiredItems   = "requiredItems"
	PredicateRequiredPuzzles = "requiredPuzzles"
)

// ChangeRoom выполняет переход через выход exitID из текущей комнаты.
// Предикат разблокировки - конъюнкция требований целевой комнаты.
// При успехе меняется ТОЛЬКО currentRoomId; при провале состояние не
// мутируется, возвращается первое несоблюденное условие.
func (s *progressionServiceImpl) ChangeRoom(ctx context.Context, playerID uuid.UUID, exitID string) (*RoomTransitionResult, error) {
	log := s.logger.With(
		zap.String("playerID", playerID.String()),
		zap.String("exitID", exitID))

	result := &RoomTransitionResult{}
	err := s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		session, err := s.sessionRepo.GetForUpdate(ctx, tx, playerID)
		if err != nil {
			return err
		}

		room, err := s.catalog.GetRoom(ctx, session.CurrentRoomID)
		if err != nil {
			return err
		}

		exit, ok := room.Exits[exitID]
		if !ok {
			return fmt.Errorf("%w: %s", models.ErrExitNotFound, exitID)
		}

		target, err := s.catalog.GetRoom(ctx, exit.TargetRoomID)
		if err != nil {
			return err
		}

		if failed := evaluateUnlockPredicate(session, target); failed != "" {
			result.Success = false
			result.FailedPredicate = failed
			return nil
		}

		session.CurrentRoomID = target.ID
		if err := s.sessionRepo.Update(ctx, tx, session); err != nil {
			return err
		}
		result.Success = true
		result.NewRoomID = target.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		log.Info("Room transition committed", zap.String("newRoomID", result.NewRoomID))
	} else {
		log.Debug("Room transition denied", zap.String("failedPredicate", result.FailedPredicate))
	}
	return result, nil
}

// evaluateUnlockPredicate возвращает имя первого несоблюденного условия
// входа в комнату, либо пустую строку, если вход разрешен.
func evaluateUnlockPredicate(session *models.PlayerSession, room *models.RoomDefinition) string {
	if room.IsLocked {
		return PredicateIsLocked
	}
	if session.Level < room.RequiredLevel {
		return PredicateRequiredLevel
	}
	for _, itemID := range room.RequiredItems {
		if !session.HasItem(itemID) {
			return PredicateRequiredItems
		}
	}
	for _, puzzleID := range room.RequiredPuzzles {
		if !session.HasCompletedPuzzle(puzzleID) {
			return PredicateRequiredPuzzles
		}
	}
	return ""
}
