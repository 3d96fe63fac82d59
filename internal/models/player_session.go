package models

import (
	"time"

	"github.com/google/uuid"
)

// AlarmLevelMax - терминальный уровень тревоги. Достижение этого уровня
// означает состояние Caught: сессия стирается до начальных значений.
const AlarmLevelMax = 10

// PlayerSession - агрегат состояния игрока. Одна строка на игрока;
// все мутирующие операции проходят через него и сериализуются по playerID.
type PlayerSession struct {
	PlayerID            uuid.UUID      `json:"player_id" db:"player_id"`
	CurrentRoomID       string         `json:"current_room_id" db:"current_room_id"`
	BitcoinBalance      Bitcoin        `json:"bitcoin_balance" db:"bitcoin_balance"`
	ExperiencePoints    int            `json:"experience_points" db:"experience_points"`
	Level               int            `json:"level" db:"level"`
	AlarmLevel          int            `json:"alarm_level" db:"alarm_level"` // Инвариант: 0 <= x <= 10
	CompletedMissionIDs []string       `json:"completed_mission_ids" db:"completed_mission_ids"`
	CompletedPuzzleIDs  []string       `json:"completed_puzzle_ids" db:"completed_puzzle_ids"`
	Inventory           map[string]int `json:"inventory" db:"inventory"` // item id -> количество
	FirstAlarmExplained bool           `json:"has_shown_first_alarm_explanation" db:"first_alarm_explained"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

// NewPlayerSession возвращает сессию с начальными значениями.
// Используется при старте новой игры и при терминальном переходе Caught.
func NewPlayerSession(playerID uuid.UUID, startRoomID string, startingBalance Bitcoin) *PlayerSession {
	now := time.Now().UTC()
	return &PlayerSession{
		PlayerID:            playerID,
		CurrentRoomID:       startRoomID,
		BitcoinBalance:      startingBalance,
		ExperiencePoints:    0,
		Level:               1,
		AlarmLevel:          0,
		CompletedMissionIDs: []string{},
		CompletedPuzzleIDs:  []string{},
		Inventory:           map[string]int{},
		FirstAlarmExplained: false,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// HasCompletedPuzzle проверяет, решен ли пазл.
func (s *PlayerSession) HasCompletedPuzzle(puzzleID string) bool {
	for _, id := range s.CompletedPuzzleIDs {
		if id == puzzleID {
			return true
		}
	}
	return false
}

// HasCompletedMission проверяет, завершена ли миссия.
func (s *PlayerSession) HasCompletedMission(missionID string) bool {
	for _, id := range s.CompletedMissionIDs {
		if id == missionID {
			return true
		}
	}
	return false
}

// HasItem проверяет наличие предмета в инвентаре (количество > 0).
func (s *PlayerSession) HasItem(itemID string) bool {
	return s.Inventory[itemID] > 0
}

// LevelForExperience вычисляет уровень игрока из опыта.
// Уровень всегда пересчитывается на сервере при начислении опыта,
// чтобы хранимое значение не могло разойтись с леджером.
func LevelForExperience(exp int) int {
	if exp < 0 {
		return 1
	}
	return 1 + exp/1000
}
