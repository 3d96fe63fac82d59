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

// StartSession создает сессию при первом старте или возвращает существующую.
// При newGame=true состояние стирается до начальных значений вместе с
// записями попыток и журналом наград.
func (s *progressionServiceImpl) StartSession(ctx context.Context, playerID uuid.UUID, newGame bool) (*models.PlayerSession, bool, error) {
	log := s.logger.With(zap.String("playerID", playerID.String()), zap.Bool("newGame", newGame))

	var session *models.PlayerSession
	var created bool
	var notes []models.GameNotification

	err := s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		existing, err := s.sessionRepo.GetForUpdate(ctx, tx, playerID)
		if err != nil {
			if !errors.Is(err, models.ErrSessionNotFound) {
				return err
			}
			session = models.NewPlayerSession(playerID, s.opts.StartRoomID, s.opts.StartingBalance)
			if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
				return err
			}
			created = true
			return nil
		}

		if !newGame {
			session = existing
			return nil
		}

		if err := s.wipeSessionState(ctx, tx, existing); err != nil {
			return err
		}
		session = existing
		created = true
		notes = append(notes, models.GameNotification{
			PlayerID:  playerID,
			Type:      models.NotificationSessionReset,
			Reason:    "new game requested",
			Timestamp: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		log.Info("Player session started")
	}
	s.publishNotifications(ctx, notes)
	return session, created, nil
}

// GetSessionState возвращает снимок последнего закоммиченного состояния.
// Блокировка не берется: чтение не должно ждать мутирующих операций.
func (s *progressionServiceImpl) GetSessionState(ctx context.Context, playerID uuid.UUID) (*models.PlayerSession, error) {
	var session *models.PlayerSession
	err := s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		var err error
		session, err = s.sessionRepo.GetByID(ctx, tx, playerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GrantItem добавляет предмет в инвентарь игрока.
func (s *progressionServiceImpl) GrantItem(ctx context.Context, playerID uuid.UUID, itemID string, quantity int) error {
	if itemID == "" || quantity <= 0 {
		return ErrInvalidItemGrant
	}
	log := s.logger.With(
		zap.String("playerID", playerID.String()),
		zap.String("itemID", itemID),
		zap.Int("quantity", quantity))

	err := s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		session, err := s.sessionRepo.GetForUpdate(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if session.Inventory == nil {
			session.Inventory = map[string]int{}
		}
		session.Inventory[itemID] += quantity
		return s.sessionRepo.Update(ctx, tx, session)
	})
	if err != nil {
		return err
	}

	log.Info("Item granted to player")
	return nil
}

// wipeSessionState возвращает сессию к начальным значениям и удаляет
// связанные леджеры. Используется при новой игре и при терминальном Caught:
// журнал наград удаляется вместе с балансами, чтобы свертка леджера
// по-прежнему воспроизводила баланс.
func (s *progressionServiceImpl) wipeSessionState(ctx context.Context, tx interfaces.DBTX, session *models.PlayerSession) error {
	fresh := models.NewPlayerSession(session.PlayerID, s.opts.StartRoomID, s.opts.StartingBalance)
	session.CurrentRoomID = fresh.CurrentRoomID
	session.BitcoinBalance = fresh.BitcoinBalance
	session.ExperiencePoints = fresh.ExperiencePoints
	session.Level = fresh.Level
	session.AlarmLevel = fresh.AlarmLevel
	session.CompletedMissionIDs = fresh.CompletedMissionIDs
	session.CompletedPuzzleIDs = fresh.CompletedPuzzleIDs
	session.Inventory = fresh.Inventory
	session.FirstAlarmExplained = fresh.FirstAlarmExplained

	if err := s.attemptRepo.DeleteByPlayer(ctx, tx, session.PlayerID); err != nil {
		return fmt.Errorf("ошибка сброса записей попыток: %w", err)
	}
	if err := s.rewardRepo.DeleteByPlayer(ctx, tx, session.PlayerID); err != nil {
		return fmt.Errorf("ошибка сброса журнала наград: %w", err)
	}
	return s.sessionRepo.Update(ctx, tx, session)
}
