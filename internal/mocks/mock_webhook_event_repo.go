package mocks

import (
	"context"
	"time"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockWebhookEventRepo struct {
	mock.Mock
	domain.WebhookEventRepository
}

func (m *MockWebhookEventRepo) Record(ctx context.Context, event *domain.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepo) GetByEventId(ctx context.Context, eventId string) (*domain.WebhookEvent, error) {
	args := m.Called(ctx, eventId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepo) MarkProcessed(ctx context.Context, eventId string) error {
	args := m.Called(ctx, eventId)
	return args.Error(0)
}

func (m *MockWebhookEventRepo) MarkFailed(ctx context.Context, eventId string, errMsg string, nextAttemptAt time.Time) error {
	args := m.Called(ctx, eventId, errMsg, nextAttemptAt)
	return args.Error(0)
}

func (m *MockWebhookEventRepo) MarkDead(ctx context.Context, eventId string, errMsg string) error {
	args := m.Called(ctx, eventId, errMsg)
	return args.Error(0)
}

func (m *MockWebhookEventRepo) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]domain.WebhookEvent, error) {
	args := m.Called(ctx, limit, lease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WebhookEvent), args.Error(1)
}
