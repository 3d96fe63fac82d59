package models

import (
	"time"

	"github.com/google/uuid"
)

// AttemptRecord - запись леджера попыток для пары (игрок, пазл).
// Создается лениво при первой отправке ответа.
// Attempts сбрасывается в 0 только как побочный эффект эскалации тревоги по этому
// пазлу либо явной операцией сброса; CompletedAt после установки неизменяем.
type AttemptRecord struct {
	PlayerID        uuid.UUID  `json:"player_id" db:"player_id"`
	PuzzleID        string     `json:"puzzle_id" db:"puzzle_id"`
	Attempts        int        `json:"attempts" db:"attempts"`
	HintsUsed       int        `json:"hints_used" db:"hints_used"`
	BestTimeSeconds *int       `json:"best_time_seconds,omitempty" db:"best_time_seconds"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsCompleted возвращает true, если пазл уже решен этим игроком.
func (r *AttemptRecord) IsCompleted() bool {
	return r.CompletedAt != nil
}
