package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"heist-server/internal/interfaces"
	"heist-server/internal/models"
)

// PlayerSessionRepository is a mock for interfaces.PlayerSessionRepository.
type PlayerSessionRepository struct {
	mock.Mock
}

func (m *PlayerSessionRepository) Create(ctx context.Context, querier interfaces.DBTX, session *models.PlayerSession) error {
	args := m.Called(ctx, querier, session)
	return args.Error(0)
}

func (m *PlayerSessionRepository) GetByID(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) (*models.PlayerSession, error) {
	args := m.Called(ctx, querier, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerSession), args.Error(1)
}

func (m *PlayerSessionRepository) GetForUpdate(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) (*models.PlayerSession, error) {
	args := m.Called(ctx, querier, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerSession), args.Error(1)
}

func (m *PlayerSessionRepository) Update(ctx context.Context, querier interfaces.DBTX, session *models.PlayerSession) error {
	args := m.Called(ctx, querier, session)
	return args.Error(0)
}

// AttemptRepository is a mock for interfaces.AttemptRepository.
type AttemptRepository struct {
	mock.Mock
}

func (m *AttemptRepository) GetOrCreate(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID, puzzleID string) (*models.AttemptRecord, error) {
	args := m.Called(ctx, querier, playerID, puzzleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttemptRecord), args.Error(1)
}

func (m *AttemptRepository) Get(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID, puzzleID string) (*models.AttemptRecord, error) {
	args := m.Called(ctx, querier, playerID, puzzleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttemptRecord), args.Error(1)
}

func (m *AttemptRepository) Update(ctx context.Context, querier interfaces.DBTX, record *models.AttemptRecord) error {
	args := m.Called(ctx, querier, record)
	return args.Error(0)
}

func (m *AttemptRepository) DeleteByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) error {
	args := m.Called(ctx, querier, playerID)
	return args.Error(0)
}

// RewardLedgerRepository is a mock for interfaces.RewardLedgerRepository.
type RewardLedgerRepository struct {
	mock.Mock
}

func (m *RewardLedgerRepository) Insert(ctx context.Context, querier interfaces.DBTX, entry *models.RewardLedgerEntry) (bool, error) {
	args := m.Called(ctx, querier, entry)
	return args.Bool(0), args.Error(1)
}

func (m *RewardLedgerRepository) GetBySource(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID, sourceID string) ([]models.RewardLedgerEntry, error) {
	args := m.Called(ctx, querier, playerID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RewardLedgerEntry), args.Error(1)
}

func (m *RewardLedgerRepository) ListByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) ([]models.RewardLedgerEntry, error) {
	args := m.Called(ctx, querier, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RewardLedgerEntry), args.Error(1)
}

func (m *RewardLedgerRepository) DeleteByPlayer(ctx context.Context, querier interfaces.DBTX, playerID uuid.UUID) error {
	args := m.Called(ctx, querier, playerID)
	return args.Error(0)
}

// CatalogRepository is a mock for interfaces.CatalogRepository.
type CatalogRepository struct {
	mock.Mock
}

func (m *CatalogRepository) GetPuzzle(ctx context.Context, puzzleID string) (*models.PuzzleDefinition, error) {
	args := m.Called(ctx, puzzleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PuzzleDefinition), args.Error(1)
}

func (m *CatalogRepository) GetMission(ctx context.Context, missionID string) (*models.MissionDefinition, error) {
	args := m.Called(ctx, missionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MissionDefinition), args.Error(1)
}

func (m *CatalogRepository) GetRoom(ctx context.Context, roomID string) (*models.RoomDefinition, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoomDefinition), args.Error(1)
}
