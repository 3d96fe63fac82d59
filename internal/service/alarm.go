package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

// alarmEscalation - итог одного шага эскалации тревоги.
type alarmEscalation struct {
	NewLevel     int
	IsFirstAlarm bool
	Caught       bool
}

// ResetAlarm - явная внешняя операция сброса уровня тревоги до нуля
// (админский/отладочный путь). Затрагивает только уровень тревоги:
// счетчики попыток, баланс, инвентарь и прогресс остаются как есть.
// Повторный сброс при нулевом уровне - no-op без записи и уведомления.
func (s *progressionServiceImpl) ResetAlarm(ctx context.Context, playerID uuid.UUID, reason string) error {
	log := s.logger.With(
		zap.String("playerID", playerID.String()),
		zap.String("reason", reason))

	var notes []models.GameNotification
	err := s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		session, err := s.sessionRepo.GetForUpdate(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if session.AlarmLevel == 0 {
			return nil
		}

		previousLevel := session.AlarmLevel
		session.AlarmLevel = 0
		newLevel := 0
		notes = append(notes, models.GameNotification{
			PlayerID:   playerID,
			Type:       models.NotificationAlarmLevelChanged,
			AlarmLevel: &newLevel,
			Reason:     reason,
			Timestamp:  time.Now().UTC(),
		})
		log.Info("Alarm level reset", zap.Int("previousLevel", previousLevel))
		return s.sessionRepo.Update(ctx, tx, session)
	})
	if err != nil {
		return err
	}

	s.publishNotifications(ctx, notes)
	return nil
}

// escalateAlarm повышает уровень тревоги на 1 (не выше максимума) внутри
// текущей транзакции. Уровень 10 - терминальный переход Caught: сессия
// стирается до начальных значений сразу же, без отката.
// Вызывается только под блокировкой строки сессии, поэтому два конкурентных
// исчерпания дают ровно +1 каждое.
func (s *progressionServiceImpl) escalateAlarm(ctx context.Context, tx interfaces.DBTX, session *models.PlayerSession, reason string, notes *[]models.GameNotification) (*alarmEscalation, error) {
	now := time.Now().UTC()
	result := &alarmEscalation{}

	if session.AlarmLevel < models.AlarmLevelMax {
		session.AlarmLevel++
	}
	result.NewLevel = session.AlarmLevel

	if !session.FirstAlarmExplained {
		session.FirstAlarmExplained = true
		result.IsFirstAlarm = true
		*notes = append(*notes, models.GameNotification{
			PlayerID:  session.PlayerID,
			Type:      models.NotificationFirstAlarmWarning,
			Reason:    reason,
			Timestamp: now,
		})
	}

	newLevel := session.AlarmLevel
	*notes = append(*notes, models.GameNotification{
		PlayerID:   session.PlayerID,
		Type:       models.NotificationAlarmLevelChanged,
		AlarmLevel: &newLevel,
		Reason:     reason,
		Timestamp:  now,
	})

	s.logger.Info("Alarm level escalated",
		zap.String("playerID", session.PlayerID.String()),
		zap.Int("alarmLevel", session.AlarmLevel),
		zap.String("reason", reason))

	if session.AlarmLevel >= models.AlarmLevelMax {
		result.Caught = true
		if err := s.wipeSessionState(ctx, tx, session); err != nil {
			return nil, err
		}
		*notes = append(*notes, models.GameNotification{
			PlayerID:  session.PlayerID,
			Type:      models.NotificationPlayerCaught,
			Reason:    reason,
			Timestamp: now,
		})
		s.logger.Warn("Player caught, session wiped",
			zap.String("playerID", session.PlayerID.String()))
		return result, nil
	}

	return result, s.sessionRepo.Update(ctx, tx, session)
}
