package models

import (
	"time"

	"github.com/google/uuid"
)

// GameNotificationType - тип игрового события для очереди уведомлений.
type GameNotificationType string

const (
	NotificationAlarmLevelChanged GameNotificationType = "alarm_level_changed"
	NotificationFirstAlarmWarning GameNotificationType = "first_alarm_warning"
	NotificationPlayerCaught      GameNotificationType = "player_caught"
	NotificationMissionCompleted  GameNotificationType = "mission_completed"
	NotificationRewardGranted     GameNotificationType = "reward_granted"
	NotificationSessionReset      GameNotificationType = "session_reset"
)

// GameNotification - событие, публикуемое в RabbitMQ после коммита транзакции.
// Поля, не относящиеся к типу события, остаются нулевыми и опускаются в JSON.
type GameNotification struct {
	PlayerID   uuid.UUID            `json:"player_id"`
	Type       GameNotificationType `json:"type"`
	AlarmLevel *int                 `json:"alarm_level,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	MissionID  string               `json:"mission_id,omitempty"`
	PuzzleID   string               `json:"puzzle_id,omitempty"`
	SourceID   string               `json:"source_id,omitempty"` // missionId или puzzleId награды
	RewardKind RewardKind           `json:"reward_kind,omitempty"`
	Amount     int64                `json:"amount,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}
