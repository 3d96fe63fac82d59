package models

import (
	"time"

	"github.com/google/uuid"
)

// RewardKind определяет вид награды в леджере.
type RewardKind string

const (
	RewardKindBitcoin RewardKind = "bitcoin"
	RewardKindExp     RewardKind = "exp"
)

// RewardLedgerEntry - запись append-only леджера наград. Источник истины для
// балансов: bitcoinBalance и experiencePoints всегда равны свертке записей.
// Уникальность (playerId, sourceId, kind) обеспечивает выдачу не более одного раза.
type RewardLedgerEntry struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	PlayerID  uuid.UUID  `json:"player_id" db:"player_id"`
	SourceID  string     `json:"source_id" db:"source_id"` // missionId или puzzleId
	Kind      RewardKind `json:"kind" db:"kind"`
	Amount    int64      `json:"amount" db:"amount"` // сатоши для bitcoin, очки для exp
	AppliedAt time.Time  `json:"applied_at" db:"applied_at"`
}
