package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"heist-server/internal/interfaces"
	interfaceMocks "heist-server/internal/interfaces/mocks"
	messagingMocks "heist-server/internal/messaging/mocks"
	"heist-server/internal/models"
	"heist-server/internal/service"
)

// fakeTxManager выполняет функцию без реальной транзакции.
type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	return fn(ctx, nil)
}

type serviceMocks struct {
	sessionRepo *interfaceMocks.PlayerSessionRepository
	attemptRepo *interfaceMocks.AttemptRepository
	rewardRepo  *interfaceMocks.RewardLedgerRepository
	catalog     *interfaceMocks.CatalogRepository
	publisher   *messagingMocks.GameNotificationPublisher
}

func newTestService(opts service.Options) (service.ProgressionService, *serviceMocks) {
	m := &serviceMocks{
		sessionRepo: new(interfaceMocks.PlayerSessionRepository),
		attemptRepo: new(interfaceMocks.AttemptRepository),
		rewardRepo:  new(interfaceMocks.RewardLedgerRepository),
		catalog:     new(interfaceMocks.CatalogRepository),
		publisher:   new(messagingMocks.GameNotificationPublisher),
	}
	svc := service.NewProgressionService(
		m.sessionRepo,
		m.attemptRepo,
		m.rewardRepo,
		m.catalog,
		fakeTxManager{},
		m.publisher,
		opts,
		zap.NewNop(),
	)
	return svc, m
}

func testSession(playerID uuid.UUID) *models.PlayerSession {
	return models.NewPlayerSession(playerID, "safehouse", 0)
}

func TestSolvePuzzle(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()

	puzzle := &models.PuzzleDefinition{
		ID:          "pz-firewall",
		Type:        models.PuzzleTypePassword,
		MaxAttempts: 3,
		Solution:    "hunter2",
		RewardExp:   50,
	}

	t.Run("wrong answers escalate alarm on third attempt", func(t *testing.T) {
		svc, m := newTestService(service.Options{StartRoomID: "safehouse"})
		session := testSession(playerID)
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: puzzle.ID, Attempts: 2}

		m.catalog.On("GetPuzzle", ctx, puzzle.ID).Return(puzzle, nil).Once()
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("GetOrCreate", ctx, mock.Anything, playerID, puzzle.ID).Return(record, nil).Once()
		m.attemptRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(r *models.AttemptRecord) bool {
			return r.Attempts == 0 && r.CompletedAt == nil
		})).Return(nil).Once()
		m.sessionRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.AlarmLevel == 1 && s.FirstAlarmExplained
		})).Return(nil).Once()
		m.publisher.On("PublishGameNotification", ctx, mock.Anything).Return(nil)

		result, err := svc.SolvePuzzle(ctx, playerID, puzzle.ID, "wrong", 0)
		assert.NoError(t, err)
		assert.False(t, result.IsCorrect)
		assert.True(t, result.MaxAttemptsReached)
		assert.True(t, result.AlarmLevelIncreased)
		assert.Equal(t, 0, result.Attempts)
		assert.Equal(t, 1, result.NewAlarmLevel)
		assert.True(t, result.IsFirstAlarmLevel)
		assert.False(t, result.Caught)
		m.sessionRepo.AssertExpectations(t)
		m.attemptRepo.AssertExpectations(t)
	})

	t.Run("correct answer completes puzzle and grants exp", func(t *testing.T) {
		svc, m := newTestService(service.Options{StartRoomID: "safehouse"})
		session := testSession(playerID)
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: puzzle.ID, Attempts: 1}

		m.catalog.On("GetPuzzle", ctx, puzzle.ID).Return(puzzle, nil).Once()
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("GetOrCreate", ctx, mock.Anything, playerID, puzzle.ID).Return(record, nil).Once()
		m.attemptRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(r *models.AttemptRecord) bool {
			// Попытки не сбрасываются при успехе, решение фиксирует completedAt
			return r.Attempts == 2 && r.CompletedAt != nil
		})).Return(nil).Once()
		m.rewardRepo.On("Insert", ctx, mock.Anything, mock.MatchedBy(func(e *models.RewardLedgerEntry) bool {
			return e.SourceID == puzzle.ID && e.Kind == models.RewardKindExp && e.Amount == 50
		})).Return(true, nil).Once()
		m.sessionRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.HasCompletedPuzzle(puzzle.ID) && s.ExperiencePoints == 50
		})).Return(nil).Once()
		m.publisher.On("PublishGameNotification", ctx, mock.Anything).Return(nil)

		result, err := svc.SolvePuzzle(ctx, playerID, puzzle.ID, "hunter2", 0)
		assert.NoError(t, err)
		assert.True(t, result.IsCorrect)
		assert.Equal(t, 2, result.Attempts)
		assert.False(t, result.AlarmLevelIncreased)
		m.rewardRepo.AssertExpectations(t)
	})

	t.Run("already completed puzzle is an idempotent no-op", func(t *testing.T) {
		svc, m := newTestService(service.Options{StartRoomID: "safehouse"})
		session := testSession(playerID)
		completedAt := time.Now().UTC()
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: puzzle.ID, Attempts: 2, CompletedAt: &completedAt}

		m.catalog.On("GetPuzzle", ctx, puzzle.ID).Return(puzzle, nil).Once()
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("GetOrCreate", ctx, mock.Anything, playerID, puzzle.ID).Return(record, nil).Once()

		result, err := svc.SolvePuzzle(ctx, playerID, puzzle.ID, "whatever", 0)
		assert.NoError(t, err)
		assert.True(t, result.AlreadyCompleted)
		assert.Equal(t, 2, result.Attempts)
		m.attemptRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		m.sessionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stale duplicate after exhaustion consumes no attempt", func(t *testing.T) {
		svc, m := newTestService(service.Options{StartRoomID: "safehouse"})
		session := testSession(playerID)
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: puzzle.ID, Attempts: 3}

		m.catalog.On("GetPuzzle", ctx, puzzle.ID).Return(puzzle, nil).Once()
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("GetOrCreate", ctx, mock.Anything, playerID, puzzle.ID).Return(record, nil).Once()

		result, err := svc.SolvePuzzle(ctx, playerID, puzzle.ID, "hunter2", 0)
		assert.NoError(t, err)
		assert.False(t, result.IsCorrect)
		assert.True(t, result.MaxAttemptsReached)
		assert.Equal(t, 3, result.Attempts)
		m.attemptRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("time limit expiry counts as an incorrect attempt", func(t *testing.T) {
		limit := 60
		timed := &models.PuzzleDefinition{
			ID:               "pz-timed",
			Type:             models.PuzzleTypeSequence,
			MaxAttempts:      3,
			TimeLimitSeconds: &limit,
			Solution:         "1-3-2",
		}
		svc, m := newTestService(service.Options{StartRoomID: "safehouse"})
		session := testSession(playerID)
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: timed.ID}

		m.catalog.On("GetPuzzle", ctx, timed.ID).Return(timed, nil).Once()
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("GetOrCreate", ctx, mock.Anything, playerID, timed.ID).Return(record, nil).Once()
		m.attemptRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(r *models.AttemptRecord) bool {
			return r.Attempts == 1 && r.CompletedAt == nil
		})).Return(nil).Once()

		// Верный ответ, но лимит времени превышен
		result, err := svc.SolvePuzzle(ctx, playerID, timed.ID, "1-3-2", 120)
		assert.NoError(t, err)
		assert.False(t, result.IsCorrect)
		assert.Equal(t, 1, result.Attempts)
		assert.False(t, result.AlarmLevelIncreased)
	})

	t.Run("reaching alarm level 10 wipes the session", func(t *testing.T) {
		svc, m := newTestService(service.Options{StartRoomID: "safehouse"})
		session := testSession(playerID)
		session.AlarmLevel = 9
		session.FirstAlarmExplained = true
		session.BitcoinBalance = 5000
		session.CompletedMissionIDs = []string{"m1"}
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: puzzle.ID, Attempts: 2}

		m.catalog.On("GetPuzzle", ctx, puzzle.ID).Return(puzzle, nil).Once()
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("GetOrCreate", ctx, mock.Anything, playerID, puzzle.ID).Return(record, nil).Once()
		m.attemptRepo.On("Update", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		m.attemptRepo.On("DeleteByPlayer", ctx, mock.Anything, playerID).Return(nil).Once()
		m.rewardRepo.On("DeleteByPlayer", ctx, mock.Anything, playerID).Return(nil).Once()
		m.sessionRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.AlarmLevel == 0 && s.BitcoinBalance == 0 &&
				len(s.CompletedMissionIDs) == 0 && s.CurrentRoomID == "safehouse"
		})).Return(nil).Once()
		m.publisher.On("PublishGameNotification", ctx, mock.Anything).Return(nil)

		result, err := svc.SolvePuzzle(ctx, playerID, puzzle.ID, "wrong", 0)
		assert.NoError(t, err)
		assert.True(t, result.Caught)
		assert.Equal(t, 10, result.NewAlarmLevel)
		m.attemptRepo.AssertExpectations(t)
		m.rewardRepo.AssertExpectations(t)
		m.sessionRepo.AssertExpectations(t)
	})
}

func TestGetHint(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()
	puzzle := &models.PuzzleDefinition{
		ID:          "pz-vault",
		Type:        models.PuzzleTypeCode,
		MaxAttempts: 3,
		Hints:       []string{"первая", "вторая"},
	}

	t.Run("returns next hint and increments counter", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: puzzle.ID, HintsUsed: 1}

		m.catalog.On("GetPuzzle", ctx, puzzle.ID).Return(puzzle, nil).Once()
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("GetOrCreate", ctx, mock.Anything, playerID, puzzle.ID).Return(record, nil).Once()
		m.attemptRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(r *models.AttemptRecord) bool {
			// Подсказки не трогают счетчик попыток
			return r.HintsUsed == 2 && r.Attempts == 0
		})).Return(nil).Once()

		result, err := svc.GetHint(ctx, playerID, puzzle.ID)
		assert.NoError(t, err)
		assert.Equal(t, "вторая", result.Hint)
		assert.Equal(t, 2, result.HintsUsed)
		assert.Equal(t, 2, result.TotalHints)
	})

	t.Run("exhausted hints return ErrNoHintsAvailable", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: puzzle.ID, HintsUsed: 2}

		m.catalog.On("GetPuzzle", ctx, puzzle.ID).Return(puzzle, nil).Once()
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("GetOrCreate", ctx, mock.Anything, playerID, puzzle.ID).Return(record, nil).Once()

		_, err := svc.GetHint(ctx, playerID, puzzle.ID)
		assert.ErrorIs(t, err, service.ErrNoHintsAvailable)
	})
}

func TestCompleteMission(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()

	mission := &models.MissionDefinition{
		ID: "msn-bank",
		Steps: []models.MissionStep{
			{ID: "s1", PuzzleID: "pz-a"},
			{ID: "s2", Title: "нарративный шаг"},
			{ID: "s3", PuzzleID: "pz-b"},
		},
		RewardBitcoins: 100_000,
		RewardExp:      200,
	}
	puzzleA := &models.PuzzleDefinition{ID: "pz-a", Type: models.PuzzleTypeLogic, MaxAttempts: 3}
	puzzleB := &models.PuzzleDefinition{ID: "pz-b", Type: models.PuzzleTypeLogic, MaxAttempts: 3}

	expectCatalog := func(m *serviceMocks) {
		m.catalog.On("GetMission", ctx, mission.ID).Return(mission, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-a").Return(puzzleA, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-b").Return(puzzleB, nil).Once()
	}

	t.Run("grants reward exactly once", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		session.CompletedPuzzleIDs = []string{"pz-a", "pz-b"}

		expectCatalog(m)
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.rewardRepo.On("Insert", ctx, mock.Anything, mock.MatchedBy(func(e *models.RewardLedgerEntry) bool {
			return e.SourceID == mission.ID && e.Kind == models.RewardKindBitcoin && e.Amount == 100_000
		})).Return(true, nil).Once()
		m.rewardRepo.On("Insert", ctx, mock.Anything, mock.MatchedBy(func(e *models.RewardLedgerEntry) bool {
			return e.SourceID == mission.ID && e.Kind == models.RewardKindExp && e.Amount == 200
		})).Return(true, nil).Once()
		m.sessionRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.HasCompletedMission(mission.ID) &&
				s.BitcoinBalance == 100_000 && s.ExperiencePoints == 200
		})).Return(nil).Once()
		m.publisher.On("PublishGameNotification", ctx, mock.Anything).Return(nil)

		result, err := svc.CompleteMission(ctx, playerID, mission.ID)
		assert.NoError(t, err)
		assert.False(t, result.AlreadyCompleted)
		assert.Equal(t, models.Bitcoin(100_000), result.RewardBitcoins)
		assert.Equal(t, 200, result.RewardExp)
		m.rewardRepo.AssertExpectations(t)
	})

	t.Run("second call returns prior amounts without balance change", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		session.CompletedPuzzleIDs = []string{"pz-a", "pz-b"}
		session.CompletedMissionIDs = []string{mission.ID}
		session.BitcoinBalance = 100_000
		session.ExperiencePoints = 200

		expectCatalog(m)
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.rewardRepo.On("Insert", ctx, mock.Anything, mock.Anything).Return(false, nil).Twice()
		m.rewardRepo.On("GetBySource", ctx, mock.Anything, playerID, mission.ID).Return([]models.RewardLedgerEntry{
			{PlayerID: playerID, SourceID: mission.ID, Kind: models.RewardKindBitcoin, Amount: 100_000},
			{PlayerID: playerID, SourceID: mission.ID, Kind: models.RewardKindExp, Amount: 200},
		}, nil).Once()

		result, err := svc.CompleteMission(ctx, playerID, mission.ID)
		assert.NoError(t, err)
		assert.True(t, result.AlreadyCompleted)
		assert.Equal(t, models.Bitcoin(100_000), result.RewardBitcoins)
		assert.Equal(t, 200, result.RewardExp)
		// Балансы не изменились
		assert.Equal(t, models.Bitcoin(100_000), session.BitcoinBalance)
		assert.Equal(t, 200, session.ExperiencePoints)
		m.sessionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unsolved bound puzzle blocks completion", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		session.CompletedPuzzleIDs = []string{"pz-a"}

		expectCatalog(m)
		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()

		_, err := svc.CompleteMission(ctx, playerID, mission.ID)
		assert.ErrorIs(t, err, models.ErrMissionNotCompleted)
		m.rewardRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("step referencing unknown puzzle is a content error", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		m.catalog.On("GetMission", ctx, mission.ID).Return(mission, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-a").Return(nil, models.ErrPuzzleNotFound).Once()

		_, err := svc.CompleteMission(ctx, playerID, mission.ID)
		assert.ErrorIs(t, err, models.ErrContentInvalid)
	})
}

func TestMissionProgress(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()

	mission := &models.MissionDefinition{
		ID: "msn-bank",
		Steps: []models.MissionStep{
			{ID: "s1", PuzzleID: "pz-a"},
			{ID: "s2"},
			{ID: "s3", PuzzleID: "pz-b"},
		},
	}
	puzzleA := &models.PuzzleDefinition{ID: "pz-a", Type: models.PuzzleTypeLogic, MaxAttempts: 3}
	puzzleB := &models.PuzzleDefinition{ID: "pz-b", Type: models.PuzzleTypeLogic, MaxAttempts: 3}

	t.Run("resume points at first unsolved bound step", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		session.CompletedPuzzleIDs = []string{"pz-a"}

		m.catalog.On("GetMission", ctx, mission.ID).Return(mission, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-a").Return(puzzleA, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-b").Return(puzzleB, nil).Once()
		m.sessionRepo.On("GetByID", ctx, mock.Anything, playerID).Return(session, nil).Once()

		progress, err := svc.GetMissionProgress(ctx, playerID, mission.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, progress.CurrentStepIndex)
		assert.False(t, progress.IsCompleted)
	})

	t.Run("all bound puzzles solved resumes at last step", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		session.CompletedPuzzleIDs = []string{"pz-a", "pz-b"}

		m.catalog.On("GetMission", ctx, mission.ID).Return(mission, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-a").Return(puzzleA, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-b").Return(puzzleB, nil).Once()
		m.sessionRepo.On("GetByID", ctx, mock.Anything, playerID).Return(session, nil).Once()

		progress, err := svc.GetMissionProgress(ctx, playerID, mission.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, progress.CurrentStepIndex)
		assert.True(t, progress.IsCompleted)
	})

	t.Run("advance validates the requested step", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		m.catalog.On("GetMission", ctx, mission.ID).Return(mission, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-a").Return(puzzleA, nil).Once()
		m.catalog.On("GetPuzzle", ctx, "pz-b").Return(puzzleB, nil).Once()

		_, err := svc.AdvanceMission(ctx, playerID, mission.ID, "no-such-step")
		assert.ErrorIs(t, err, service.ErrUnknownMissionStep)
	})
}

func TestChangeRoom(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()

	current := &models.RoomDefinition{
		ID:    "safehouse",
		Exits: map[string]models.RoomExit{"north": {TargetRoomID: "server-room"}},
	}

	t.Run("missing required item denies transition citing requiredItems", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		target := &models.RoomDefinition{
			ID:            "server-room",
			RequiredItems: []string{"keycard"},
		}

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.catalog.On("GetRoom", ctx, "safehouse").Return(current, nil).Once()
		m.catalog.On("GetRoom", ctx, "server-room").Return(target, nil).Once()

		result, err := svc.ChangeRoom(ctx, playerID, "north")
		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, service.PredicateRequiredItems, result.FailedPredicate)
		// Провал перехода ничего не мутирует
		assert.Equal(t, "safehouse", session.CurrentRoomID)
		assert.Equal(t, 0, session.AlarmLevel)
		m.sessionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("satisfied predicate commits only the room change", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		session.Inventory = map[string]int{"keycard": 1}
		target := &models.RoomDefinition{
			ID:            "server-room",
			RequiredItems: []string{"keycard"},
		}

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.catalog.On("GetRoom", ctx, "safehouse").Return(current, nil).Once()
		m.catalog.On("GetRoom", ctx, "server-room").Return(target, nil).Once()
		m.sessionRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.CurrentRoomID == "server-room"
		})).Return(nil).Once()

		result, err := svc.ChangeRoom(ctx, playerID, "north")
		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "server-room", result.NewRoomID)
	})

	t.Run("unknown exit returns ErrExitNotFound", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.catalog.On("GetRoom", ctx, "safehouse").Return(current, nil).Once()

		_, err := svc.ChangeRoom(ctx, playerID, "trapdoor")
		assert.ErrorIs(t, err, models.ErrExitNotFound)
	})

	t.Run("locked room cited before other predicates", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		target := &models.RoomDefinition{
			ID:            "server-room",
			IsLocked:      true,
			RequiredLevel: 99,
		}

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.catalog.On("GetRoom", ctx, "safehouse").Return(current, nil).Once()
		m.catalog.On("GetRoom", ctx, "server-room").Return(target, nil).Once()

		result, err := svc.ChangeRoom(ctx, playerID, "north")
		assert.NoError(t, err)
		assert.Equal(t, service.PredicateIsLocked, result.FailedPredicate)
	})
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()
	opts := service.Options{StartRoomID: "safehouse"}

	t.Run("creates session on first start", func(t *testing.T) {
		svc, m := newTestService(opts)

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(nil, models.ErrSessionNotFound).Once()
		m.sessionRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.PlayerID == playerID && s.CurrentRoomID == "safehouse" &&
				s.AlarmLevel == 0 && s.Level == 1
		})).Return(nil).Once()

		session, created, err := svc.StartSession(ctx, playerID, false)
		assert.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, playerID, session.PlayerID)
	})

	t.Run("returns existing session without reset", func(t *testing.T) {
		svc, m := newTestService(opts)
		existing := testSession(playerID)
		existing.AlarmLevel = 4

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(existing, nil).Once()

		session, created, err := svc.StartSession(ctx, playerID, false)
		assert.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 4, session.AlarmLevel)
		m.sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("new game wipes state and ledgers", func(t *testing.T) {
		svc, m := newTestService(opts)
		existing := testSession(playerID)
		existing.AlarmLevel = 7
		existing.BitcoinBalance = 999

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(existing, nil).Once()
		m.attemptRepo.On("DeleteByPlayer", ctx, mock.Anything, playerID).Return(nil).Once()
		m.rewardRepo.On("DeleteByPlayer", ctx, mock.Anything, playerID).Return(nil).Once()
		m.sessionRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.AlarmLevel == 0 && s.BitcoinBalance == 0
		})).Return(nil).Once()
		m.publisher.On("PublishGameNotification", ctx, mock.Anything).Return(nil)

		session, created, err := svc.StartSession(ctx, playerID, true)
		assert.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 0, session.AlarmLevel)
	})
}

func TestGrantItem(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()

	t.Run("adds quantity to inventory", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		session.Inventory = map[string]int{"keycard": 1}

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.sessionRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.Inventory["keycard"] == 3
		})).Return(nil).Once()

		err := svc.GrantItem(ctx, playerID, "keycard", 2)
		assert.NoError(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, _ := newTestService(service.Options{})
		err := svc.GrantItem(ctx, playerID, "keycard", 0)
		assert.ErrorIs(t, err, service.ErrInvalidItemGrant)
	})
}

func TestResetPuzzleAttempts(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()

	t.Run("resets counter to zero", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		record := &models.AttemptRecord{PlayerID: playerID, PuzzleID: "pz-a", Attempts: 2, HintsUsed: 1}

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("Get", ctx, mock.Anything, playerID, "pz-a").Return(record, nil).Once()
		m.attemptRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(r *models.AttemptRecord) bool {
			// Сбрасываются только попытки, подсказки сохраняются
			return r.Attempts == 0 && r.HintsUsed == 1
		})).Return(nil).Once()

		err := svc.ResetPuzzleAttempts(ctx, playerID, "pz-a", "support ticket 4411")
		assert.NoError(t, err)
	})

	t.Run("missing record is an idempotent no-op", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.attemptRepo.On("Get", ctx, mock.Anything, playerID, "pz-a").Return(nil, models.ErrNotFound).Once()

		err := svc.ResetPuzzleAttempts(ctx, playerID, "pz-a", "support ticket 4411")
		assert.NoError(t, err)
	})
}

func TestResetAlarm(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()

	t.Run("resets level to zero and leaves the rest of the session intact", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)
		session.AlarmLevel = 7
		session.FirstAlarmExplained = true
		session.BitcoinBalance = 100_000
		session.ExperiencePoints = 250
		session.CompletedPuzzleIDs = []string{"pz-a"}

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()
		m.sessionRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.PlayerSession) bool {
			return s.AlarmLevel == 0 &&
				s.FirstAlarmExplained &&
				s.BitcoinBalance == 100_000 &&
				s.ExperiencePoints == 250 &&
				len(s.CompletedPuzzleIDs) == 1
		})).Return(nil).Once()
		m.publisher.On("PublishGameNotification", ctx, mock.MatchedBy(func(n models.GameNotification) bool {
			return n.Type == models.NotificationAlarmLevelChanged &&
				n.AlarmLevel != nil && *n.AlarmLevel == 0
		})).Return(nil).Once()

		err := svc.ResetAlarm(ctx, playerID, "support ticket 4411")
		assert.NoError(t, err)
		m.sessionRepo.AssertExpectations(t)
		m.attemptRepo.AssertNotCalled(t, "DeleteByPlayer", mock.Anything, mock.Anything, mock.Anything)
		m.rewardRepo.AssertNotCalled(t, "DeleteByPlayer", mock.Anything, mock.Anything, mock.Anything)
		m.publisher.AssertExpectations(t)
	})

	t.Run("zero level is an idempotent no-op", func(t *testing.T) {
		svc, m := newTestService(service.Options{})
		session := testSession(playerID)

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(session, nil).Once()

		err := svc.ResetAlarm(ctx, playerID, "support ticket 4411")
		assert.NoError(t, err)
		m.sessionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		m.publisher.AssertNotCalled(t, "PublishGameNotification", mock.Anything, mock.Anything)
	})

	t.Run("missing session surfaces the repository error", func(t *testing.T) {
		svc, m := newTestService(service.Options{})

		m.sessionRepo.On("GetForUpdate", ctx, mock.Anything, playerID).Return(nil, models.ErrSessionNotFound).Once()

		err := svc.ResetAlarm(ctx, playerID, "support ticket 4411")
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
	})
}

func TestFoldLedger(t *testing.T) {
	playerID := uuid.New()
	entries := []models.RewardLedgerEntry{
		{PlayerID: playerID, SourceID: "m1", Kind: models.RewardKindBitcoin, Amount: 100_000},
		{PlayerID: playerID, SourceID: "m1", Kind: models.RewardKindExp, Amount: 200},
		{PlayerID: playerID, SourceID: "pz-a", Kind: models.RewardKindExp, Amount: 50},
		{PlayerID: playerID, SourceID: "m2", Kind: models.RewardKindBitcoin, Amount: 25_000},
	}

	bitcoins, exp := service.FoldLedger(entries)
	assert.Equal(t, models.Bitcoin(125_000), bitcoins)
	assert.Equal(t, 250, exp)
}
