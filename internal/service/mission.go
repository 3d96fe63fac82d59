package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

// GetMissionProgress возвращает позицию возобновления миссии: индекс первого
// шага, чей привязанный пазл еще не решен. Если все привязанные пазлы
// решены, возвращается индекс последнего шага (экран завершения).
func (s *progressionServiceImpl) GetMissionProgress(ctx context.Context, playerID uuid.UUID, missionID string) (*MissionProgress, error) {
	mission, err := s.loadMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	session, err := s.GetSessionState(ctx, playerID)
	if err != nil {
		return nil, err
	}

	return missionProgressFor(session, mission), nil
}

// AdvanceMission обрабатывает заявку клиента о переходе на шаг stepID.
// Позиция пересчитывается из решенных пазлов, заявленный шаг только
// валидируется: сервер авторитетен, клиентский прогресс - подсказка.
func (s *progressionServiceImpl) AdvanceMission(ctx context.Context, playerID uuid.UUID, missionID, stepID string) (*MissionProgress, error) {
	mission, err := s.loadMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, step := range mission.Steps {
		if step.ID == stepID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownMissionStep, missionID, stepID)
	}

	session, err := s.GetSessionState(ctx, playerID)
	if err != nil {
		return nil, err
	}

	progress := missionProgressFor(session, mission)
	s.logger.Debug("Mission advance processed",
		zap.String("playerID", playerID.String()),
		zap.String("missionID", missionID),
		zap.String("requestedStepID", stepID),
		zap.Int("currentStepIndex", progress.CurrentStepIndex))
	return progress, nil
}

// CompleteMission выдает награду за миссию ровно один раз.
// Повторный вызов возвращает ранее записанные суммы без изменения балансов.
func (s *progressionServiceImpl) CompleteMission(ctx context.Context, playerID uuid.UUID, missionID string) (*MissionRewardResult, error) {
	log := s.logger.With(
		zap.String("playerID", playerID.String()),
		zap.String("missionID", missionID))

	mission, err := s.loadMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	result := &MissionRewardResult{}
	var notes []models.GameNotification

	err = s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		session, err := s.sessionRepo.GetForUpdate(ctx, tx, playerID)
		if err != nil {
			return err
		}

		for _, puzzleID := range mission.BoundPuzzleIDs() {
			if !session.HasCompletedPuzzle(puzzleID) {
				return fmt.Errorf("%w: пазл %s не решен", models.ErrMissionNotCompleted, puzzleID)
			}
		}

		bitcoinGranted := false
		if mission.RewardBitcoins > 0 {
			bitcoinGranted, err = s.applyReward(ctx, tx, session, missionID, models.RewardKindBitcoin, int64(mission.RewardBitcoins), &notes)
			if err != nil {
				return err
			}
		}
		expGranted := false
		if mission.RewardExp > 0 {
			expGranted, err = s.applyReward(ctx, tx, session, missionID, models.RewardKindExp, int64(mission.RewardExp), &notes)
			if err != nil {
				return err
			}
		}

		if !bitcoinGranted && !expGranted {
			// Награда уже выдавалась, возвращаем записанные суммы
			result.AlreadyCompleted = true
			entries, err := s.rewardRepo.GetBySource(ctx, tx, playerID, missionID)
			if err != nil {
				return err
			}
			result.RewardBitcoins, result.RewardExp = FoldLedger(entries)
			return nil
		}

		result.RewardBitcoins = mission.RewardBitcoins
		result.RewardExp = mission.RewardExp

		if !session.HasCompletedMission(missionID) {
			session.CompletedMissionIDs = append(session.CompletedMissionIDs, missionID)
		}
		notes = append(notes, models.GameNotification{
			PlayerID:  playerID,
			Type:      models.NotificationMissionCompleted,
			MissionID: missionID,
			Timestamp: time.Now().UTC(),
		})
		return s.sessionRepo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyCompleted {
		log.Info("Mission completed, reward granted",
			zap.String("rewardBitcoins", result.RewardBitcoins.String()),
			zap.Int("rewardExp", result.RewardExp))
	}
	s.publishNotifications(ctx, notes)
	return result, nil
}

// loadMission загружает миссию и проверяет, что все привязанные пазлы
// существуют в каталоге. Шаг со ссылкой на несуществующий пазл - ошибка
// контента, никогда не пропускается молча.
func (s *progressionServiceImpl) loadMission(ctx context.Context, missionID string) (*models.MissionDefinition, error) {
	mission, err := s.catalog.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if len(mission.Steps) == 0 {
		return nil, fmt.Errorf("%w: миссия %s не содержит шагов", models.ErrContentInvalid, missionID)
	}
	for _, puzzleID := range mission.BoundPuzzleIDs() {
		if _, err := s.catalog.GetPuzzle(ctx, puzzleID); err != nil {
			if errors.Is(err, models.ErrPuzzleNotFound) {
				return nil, fmt.Errorf("%w: шаг миссии %s ссылается на несуществующий пазл %s", models.ErrContentInvalid, missionID, puzzleID)
			}
			return nil, err
		}
	}
	return mission, nil
}

func missionProgressFor(session *models.PlayerSession, mission *models.MissionDefinition) *MissionProgress {
	progress := &MissionProgress{
		MissionID:  mission.ID,
		TotalSteps: len(mission.Steps),
	}

	completed := true
	currentIndex := len(mission.Steps) - 1
	for idx, step := range mission.Steps {
		if step.PuzzleID == "" {
			continue
		}
		if !session.HasCompletedPuzzle(step.PuzzleID) {
			completed = false
			currentIndex = idx
			break
		}
	}

	progress.CurrentStepIndex = currentIndex
	progress.IsCompleted = completed
	return progress
}
