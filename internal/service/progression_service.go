package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	"heist-server/internal/messaging"
	"heist-server/internal/models"
)

// ProgressionService определяет интерфейс бизнес-логики прогрессии игрока.
// Все мутирующие операции сериализуются по игроку: внутри одной транзакции
// строка сессии блокируется на все время логической операции.
type ProgressionService interface {
	// StartSession создает сессию при первом старте или возвращает существующую.
	// При newGame=true существующая сессия стирается до начальных значений.
	StartSession(ctx context.Context, playerID uuid.UUID, newGame bool) (*models.PlayerSession, bool, error)
	// GetSessionState возвращает снимок последнего закоммиченного состояния.
	GetSessionState(ctx context.Context, playerID uuid.UUID) (*models.PlayerSession, error)

	SolvePuzzle(ctx context.Context, playerID uuid.UUID, puzzleID, answer string, timeSpentSeconds int) (*SolveResult, error)
	GetHint(ctx context.Context, playerID uuid.UUID, puzzleID string) (*HintResult, error)
	// ResetPuzzleAttempts - явная внешняя операция сброса счетчика попыток
	// (админский/отладочный путь, не часть основного игрового цикла).
	ResetPuzzleAttempts(ctx context.Context, playerID uuid.UUID, puzzleID, reason string) error
	// ResetAlarm - явная внешняя операция сброса уровня тревоги до нуля.
	// Остальное состояние сессии не затрагивается.
	ResetAlarm(ctx context.Context, playerID uuid.UUID, reason string) error

	// GetMissionProgress возвращает позицию возобновления миссии.
	GetMissionProgress(ctx context.Context, playerID uuid.UUID, missionID string) (*MissionProgress, error)
	AdvanceMission(ctx context.Context, playerID uuid.UUID, missionID, stepID string) (*MissionProgress, error)
	CompleteMission(ctx context.Context, playerID uuid.UUID, missionID string) (*MissionRewardResult, error)

	ChangeRoom(ctx context.Context, playerID uuid.UUID, exitID string) (*RoomTransitionResult, error)

	// GrantItem добавляет предмет в инвентарь (межсервисная операция).
	GrantItem(ctx context.Context, playerID uuid.UUID, itemID string, quantity int) error
}

// SolveResult - результат отправки ответа на пазл.
type SolveResult struct {
	IsCorrect           bool `json:"is_correct"`
	AlreadyCompleted    bool `json:"already_completed"`
	Attempts            int  `json:"attempts"`
	MaxAttempts         int  `json:"max_attempts"`
	MaxAttemptsReached  bool `json:"max_attempts_reached"`
	AlarmLevelIncreased bool `json:"alarm_level_increased"`
	NewAlarmLevel       int  `json:"new_alarm_level"`
	IsFirstAlarmLevel   bool `json:"is_first_alarm_level"`
	Caught              bool `json:"caught"`
}

// HintResult - очередная подсказка для пазла.
type HintResult struct {
	Hint       string `json:"hint"`
	HintsUsed  int    `json:"hints_used"`
	TotalHints int    `json:"total_hints"`
}

// MissionProgress - позиция игрока в миссии.
type MissionProgress struct {
	MissionID        string `json:"mission_id"`
	CurrentStepIndex int    `json:"current_step_index"`
	TotalSteps       int    `json:"total_steps"`
	IsCompleted      bool   `json:"is_completed"`
}

// MissionRewardResult - результат завершения миссии.
// При повторном вызове возвращаются ранее записанные суммы.
type MissionRewardResult struct {
	RewardBitcoins   models.Bitcoin `json:"reward_bitcoins"`
	RewardExp        int            `json:"reward_exp"`
	AlreadyCompleted bool           `json:"already_completed"`
}

// RoomTransitionResult - результат попытки перехода между комнатами.
// FailedPredicate называет первое несоблюденное условие
// (isLocked, requiredLevel, requiredItems, requiredPuzzles).
type RoomTransitionResult struct {
	Success         bool   `json:"success"`
	NewRoomID       string `json:"new_room_id,omitempty"`
	FailedPredicate string `json:"failed_predicate,omitempty"`
}

// txManager абстрагирует транзакционный помощник для тестируемости.
type txManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error
}

// Options - игровые настройки сервиса.
type Options struct {
	StartRoomID     string
	StartingBalance models.Bitcoin
}

type progressionServiceImpl struct {
	sessionRepo interfaces.PlayerSessionRepository
	attemptRepo interfaces.AttemptRepository
	rewardRepo  interfaces.RewardLedgerRepository
	catalog     interfaces.CatalogRepository
	txHelper    txManager
	publisher   messaging.GameNotificationPublisher
	opts        Options
	logger      *zap.Logger
}

// NewProgressionService создает сервис прогрессии.
func NewProgressionService(
	sessionRepo interfaces.PlayerSessionRepository,
	attemptRepo interfaces.AttemptRepository,
	rewardRepo interfaces.RewardLedgerRepository,
	catalog interfaces.CatalogRepository,
	txHelper txManager,
	publisher messaging.GameNotificationPublisher,
	opts Options,
	logger *zap.Logger,
) ProgressionService {
	return &progressionServiceImpl{
		sessionRepo: sessionRepo,
		attemptRepo: attemptRepo,
		rewardRepo:  rewardRepo,
		catalog:     catalog,
		txHelper:    txHelper,
		publisher:   publisher,
		opts:        opts,
		logger:      logger.Named("ProgressionService"),
	}
}

// publishNotifications отправляет накопленные за операцию события после
// коммита транзакции. Ошибки публикации не проваливают саму операцию.
func (s *progressionServiceImpl) publishNotifications(ctx context.Context, notes []models.GameNotification) {
	for _, note := range notes {
		if err := s.publisher.PublishGameNotification(ctx, note); err != nil {
			s.logger.Error("Failed to publish game notification",
				zap.String("playerID", note.PlayerID.String()),
				zap.String("type", string(note.Type)),
				zap.Error(err))
		}
	}
}
