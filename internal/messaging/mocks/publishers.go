package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"heist-server/internal/models"
)

// GameNotificationPublisher is a mock for messaging.GameNotificationPublisher.
type GameNotificationPublisher struct {
	mock.Mock
}

func (m *GameNotificationPublisher) PublishGameNotification(ctx context.Context, payload models.GameNotification) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
