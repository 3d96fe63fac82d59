package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

// SolvePuzzle проверяет ответ игрока и мутирует леджер попыток.
// Вся операция (инкремент попытки, определение корректности, эскалация тревоги,
// сброс попыток) коммитится целиком либо не коммитится вовсе.
func (s *progressionServiceImpl) SolvePuzzle(ctx context.Context, playerID uuid.UUID, puzzleID, answer string, timeSpentSeconds int) (*SolveResult, error) {
	log := s.logger.With(
		zap.String("playerID", playerID.String()),
		zap.String("puzzleID", puzzleID))

	// Каталог неизменяем, читаем определение до транзакции
	puzzle, err := s.catalog.GetPuzzle(ctx, puzzleID)
	if err != nil {
		return nil, err
	}

	result := &SolveResult{MaxAttempts: puzzle.MaxAttempts}
	var notes []models.GameNotification

	err = s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		session, err := s.sessionRepo.GetForUpdate(ctx, tx, playerID)
		if err != nil {
			return err
		}

		record, err := s.attemptRepo.GetOrCreate(ctx, tx, playerID, puzzleID)
		if err != nil {
			return err
		}

		// Повторная отправка на решенный пазл - идемпотентный no-op
		if record.IsCompleted() {
			result.AlreadyCompleted = true
			result.IsCorrect = true
			result.Attempts = record.Attempts
			result.NewAlarmLevel = session.AlarmLevel
			return nil
		}

		// Запоздавший дубликат после исчерпания: попытку не потребляем,
		// состояние сервера авторитетно
		if record.Attempts >= puzzle.MaxAttempts {
			result.Attempts = record.Attempts
			result.MaxAttemptsReached = true
			result.NewAlarmLevel = session.AlarmLevel
			return nil
		}

		correct, err := evaluateAnswer(puzzle, answer, timeSpentSeconds)
		if err != nil {
			return err
		}

		record.Attempts++
		result.Attempts = record.Attempts
		result.IsCorrect = correct
		result.NewAlarmLevel = session.AlarmLevel

		if correct {
			now := time.Now().UTC()
			record.CompletedAt = &now
			if puzzle.TimeLimitSeconds != nil {
				if record.BestTimeSeconds == nil || timeSpentSeconds < *record.BestTimeSeconds {
					best := timeSpentSeconds
					record.BestTimeSeconds = &best
				}
			}
			if err := s.attemptRepo.Update(ctx, tx, record); err != nil {
				return err
			}

			if !session.HasCompletedPuzzle(puzzleID) {
				session.CompletedPuzzleIDs = append(session.CompletedPuzzleIDs, puzzleID)
			}
			if puzzle.RewardExp > 0 {
				if _, err := s.applyReward(ctx, tx, session, puzzleID, models.RewardKindExp, int64(puzzle.RewardExp), &notes); err != nil {
					return err
				}
			}
			return s.sessionRepo.Update(ctx, tx, session)
		}

		// Неверный ответ
		if record.Attempts >= puzzle.MaxAttempts {
			// Исчерпание: сброс попыток и эскалация тревоги в одной транзакции
			record.Attempts = 0
			if err := s.attemptRepo.Update(ctx, tx, record); err != nil {
				return err
			}

			escalation, err := s.escalateAlarm(ctx, tx, session, fmt.Sprintf("puzzle %s exhausted", puzzleID), &notes)
			if err != nil {
				return err
			}
			result.Attempts = 0
			result.MaxAttemptsReached = true
			result.AlarmLevelIncreased = true
			result.NewAlarmLevel = escalation.NewLevel
			result.IsFirstAlarmLevel = escalation.IsFirstAlarm
			result.Caught = escalation.Caught
			return nil
		}

		return s.attemptRepo.Update(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	log.Debug("Puzzle solve processed",
		zap.Bool("isCorrect", result.IsCorrect),
		zap.Int("attempts", result.Attempts),
		zap.Bool("alarmLevelIncreased", result.AlarmLevelIncreased))
	s.publishNotifications(ctx, notes)
	return result, nil
}

// GetHint возвращает очередную подсказку пазла и увеличивает счетчик
// использованных подсказок. На попытки и корректность не влияет.
func (s *progressionServiceImpl) GetHint(ctx context.Context, playerID uuid.UUID, puzzleID string) (*HintResult, error) {
	puzzle, err := s.catalog.GetPuzzle(ctx, puzzleID)
	if err != nil {
		return nil, err
	}

	result := &HintResult{TotalHints: len(puzzle.Hints)}
	err = s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if _, err := s.sessionRepo.GetForUpdate(ctx, tx, playerID); err != nil {
			return err
		}

		record, err := s.attemptRepo.GetOrCreate(ctx, tx, playerID, puzzleID)
		if err != nil {
			return err
		}
		if record.HintsUsed >= len(puzzle.Hints) {
			return ErrNoHintsAvailable
		}

		result.Hint = puzzle.Hints[record.HintsUsed]
		record.HintsUsed++
		result.HintsUsed = record.HintsUsed
		return s.attemptRepo.Update(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResetPuzzleAttempts - явная внешняя операция сброса счетчика попыток.
// Единственный путь сброса помимо эскалации тревоги.
func (s *progressionServiceImpl) ResetPuzzleAttempts(ctx context.Context, playerID uuid.UUID, puzzleID, reason string) error {
	log := s.logger.With(
		zap.String("playerID", playerID.String()),
		zap.String("puzzleID", puzzleID),
		zap.String("reason", reason))

	err := s.txHelper.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if _, err := s.sessionRepo.GetForUpdate(ctx, tx, playerID); err != nil {
			return err
		}

		record, err := s.attemptRepo.Get(ctx, tx, playerID, puzzleID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// Нечего сбрасывать, операция идемпотентна
				return nil
			}
			return err
		}
		record.Attempts = 0
		return s.attemptRepo.Update(ctx, tx, record)
	})
	if err != nil {
		return err
	}

	log.Info("Puzzle attempts reset")
	return nil
}

// evaluateAnswer применяет типо-специфичное правило корректности.
// Превышение лимита времени считается автоматически неверным ответом,
// потребляющим попытку (клиентское время - только подсказка, см. solve).
func evaluateAnswer(puzzle *models.PuzzleDefinition, answer string, timeSpentSeconds int) (bool, error) {
	if puzzle.TimeLimitSeconds != nil && timeSpentSeconds > *puzzle.TimeLimitSeconds {
		return false, nil
	}

	normalized := strings.TrimSpace(answer)
	solution := puzzle.Solution
	if !puzzle.CaseSensitive {
		normalized = strings.ToLower(normalized)
		solution = strings.ToLower(solution)
	}

	switch puzzle.Type {
	case models.PuzzleTypeMultipleChoice:
		return normalized == solution, nil

	case models.PuzzleTypeCode, models.PuzzleTypePassword:
		if puzzle.SolutionHash != "" {
			err := bcrypt.CompareHashAndPassword([]byte(puzzle.SolutionHash), []byte(normalized))
			return err == nil, nil
		}
		return normalized == solution, nil

	case models.PuzzleTypeTerminalCommand:
		if len(puzzle.AllowedCommands) > 0 {
			for _, cmd := range puzzle.AllowedCommands {
				if !puzzle.CaseSensitive {
					cmd = strings.ToLower(cmd)
				}
				if normalized == cmd {
					return true, nil
				}
			}
			return false, nil
		}
		return normalized == solution, nil

	case models.PuzzleTypeSequence, models.PuzzleTypeLogic:
		return normalized == solution, nil

	default:
		return false, fmt.Errorf("%w: неизвестный тип пазла %q", models.ErrContentInvalid, puzzle.Type)
	}
}
