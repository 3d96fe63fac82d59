package models

// Типы определений контент-каталога. Каталог авторится вне этого сервиса
// (админка) и читается здесь только на чтение; определения неизменяемы.

// PuzzleType определяет тип пазла и правило проверки ответа.
type PuzzleType string

const (
	PuzzleTypeMultipleChoice  PuzzleType = "multiple_choice"
	PuzzleTypeCode            PuzzleType = "code"
	PuzzleTypePassword        PuzzleType = "password"
	PuzzleTypeTerminalCommand PuzzleType = "terminal_command"
	PuzzleTypeSequence        PuzzleType = "sequence"
	PuzzleTypeLogic           PuzzleType = "logic"
)

// PuzzleDefinition описывает пазл: правило корректности, лимиты и награду.
type PuzzleDefinition struct {
	ID               string     `json:"id" db:"id"`
	Type             PuzzleType `json:"type" db:"type"`
	MaxAttempts      int        `json:"max_attempts" db:"max_attempts"`
	TimeLimitSeconds *int       `json:"time_limit_seconds,omitempty" db:"time_limit_seconds"`
	CaseSensitive    bool       `json:"case_sensitive" db:"case_sensitive"`
	// Solution - литеральное решение (буква для multiple_choice, строка для
	// code/password/sequence/logic, точная команда для terminal_command).
	Solution string `json:"solution,omitempty" db:"solution"`
	// SolutionHash - bcrypt-хэш решения для code/password, когда открытый текст
	// не хранится в каталоге. Если задан, имеет приоритет над Solution.
	SolutionHash string `json:"solution_hash,omitempty" db:"solution_hash"`
	// AllowedCommands - allow-list для terminal_command; если пуст,
	// используется точное совпадение с Solution.
	AllowedCommands []string `json:"allowed_commands,omitempty" db:"allowed_commands"`
	Hints           []string `json:"hints,omitempty" db:"hints"` // Упорядоченный список подсказок
	RewardExp       int      `json:"reward_exp" db:"reward_exp"`
}

// MissionStep - шаг миссии; PuzzleID пуст для чисто нарративных шагов.
type MissionStep struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	PuzzleID string `json:"puzzle_id,omitempty"`
}

// MissionDefinition - упорядоченная последовательность шагов с наградой за завершение.
type MissionDefinition struct {
	ID             string        `json:"id" db:"id"`
	Steps          []MissionStep `json:"steps" db:"steps"`
	RewardBitcoins Bitcoin       `json:"reward_bitcoins" db:"reward_bitcoins"`
	RewardExp      int           `json:"reward_exp" db:"reward_exp"`
}

// BoundPuzzleIDs возвращает puzzleId всех шагов, привязанных к пазлам,
// в порядке шагов.
func (m *MissionDefinition) BoundPuzzleIDs() []string {
	ids := make([]string, 0, len(m.Steps))
	for _, step := range m.Steps {
		if step.PuzzleID != "" {
			ids = append(ids, step.PuzzleID)
		}
	}
	return ids
}

// RoomExit - направленное ребро к другой комнате.
// Предикат разблокировки вычисляется по требованиям ЦЕЛЕВОЙ комнаты.
type RoomExit struct {
	TargetRoomID string `json:"target_room_id"`
}

// RoomDefinition - узел локации с требованиями для входа.
type RoomDefinition struct {
	ID              string              `json:"id" db:"id"`
	RequiredLevel   int                 `json:"required_level" db:"required_level"`
	RequiredItems   []string            `json:"required_items,omitempty" db:"required_items"`
	RequiredPuzzles []string            `json:"required_puzzles,omitempty" db:"required_puzzles"`
	IsLocked        bool                `json:"is_locked" db:"is_locked"`
	Exits           map[string]RoomExit `json:"exits" db:"exits"` // exitId -> выход
}
