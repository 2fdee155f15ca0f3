package outbox_poller

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lifesync-ledger/internal/config"
	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/domain/contact"
	"github.com/lifesync-ledger/internal/domain/outbox"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id string, status outbox.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockContactEventPublisher for testing
type MockContactEventPublisher struct {
	mock.Mock
}

func (m *MockContactEventPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockContactEventPublisher) Close() error {
	return m.Called().Error(0)
}

// MockEventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestConfig() *config.OutboxConfig {
	return &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       5 * time.Millisecond,
	}
}

func newTestMessage(contactID string, attempts int) *outbox.Message {
	c := &contact.Contact{ID: contactID, OwnerID: "owner-1", Name: "Ravi", CurrentBalance: 500, BalanceType: contact.BalanceOwe, Version: 1}
	event := activity.NewEvent(activity.EventContactCreated, c, nil, "corr-1", time.Now().UTC())
	msg, err := outbox.NewMessage(event)
	if err != nil {
		panic(err)
	}
	msg.Attempts = attempts
	return msg
}
