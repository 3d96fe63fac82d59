package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

// applyReward добавляет запись в журнал наград и синхронно обновляет
// соответствующий баланс в сессии (в рамках той же транзакции, сессию
// сохраняет вызывающая сторона). Возвращает false, если награда с таким
// (playerId, sourceId, kind) уже была начислена; балансы в этом случае
// не меняются.
func (s *progressionServiceImpl) applyReward(ctx context.Context, tx interfaces.DBTX, session *models.PlayerSession, sourceID string, kind models.RewardKind, amount int64, notes *[]models.GameNotification) (bool, error) {
	if amount == 0 {
		return false, nil
	}

	entry := &models.RewardLedgerEntry{
		PlayerID: session.PlayerID,
		SourceID: sourceID,
		Kind:     kind,
		Amount:   amount,
	}
	inserted, err := s.rewardRepo.Insert(ctx, tx, entry)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	switch kind {
	case models.RewardKindBitcoin:
		session.BitcoinBalance += models.Bitcoin(amount)
	case models.RewardKindExp:
		session.ExperiencePoints += int(amount)
		// Уровень всегда производная от опыта
		session.Level = models.LevelForExperience(session.ExperiencePoints)
	default:
		return false, fmt.Errorf("%w: неизвестный вид награды %q", models.ErrContentInvalid, kind)
	}

	*notes = append(*notes, models.GameNotification{
		PlayerID:   session.PlayerID,
		Type:       models.NotificationRewardGranted,
		SourceID:   sourceID,
		RewardKind: kind,
		Amount:     amount,
		Timestamp:  time.Now().UTC(),
	})

	s.logger.Info("Reward applied",
		zap.String("playerID", session.PlayerID.String()),
		zap.String("sourceID", sourceID),
		zap.String("kind", string(kind)),
		zap.Int64("amount", amount))
	return true, nil
}

// FoldLedger сворачивает журнал наград игрока в итоговые балансы.
// Инвариант: балансы сессии всегда равны свертке журнала.
func FoldLedger(entries []models.RewardLedgerEntry) (models.Bitcoin, int) {
	var bitcoins models.Bitcoin
	var exp int
	for _, entry := range entries {
		switch entry.Kind {
		case models.RewardKindBitcoin:
			bitcoins += models.Bitcoin(entry.Amount)
		case models.RewardKindExp:
			exp += int(entry.Amount)
		}
	}
	return bitcoins, exp
}
