package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/domain/contact"
)

// MockActivityRepository for testing
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Record(ctx context.Context, event *activity.Event) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivityRepository) ListByContact(ctx context.Context, ownerID, contactID string, limit, offset int) ([]*activity.Event, error) {
	args := m.Called(ctx, ownerID, contactID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Event), args.Error(1)
}

func (m *MockActivityRepository) CountByContact(ctx context.Context, ownerID, contactID string) (int64, error) {
	args := m.Called(ctx, ownerID, contactID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRecordingService for testing
type MockRecordingService struct {
	mock.Mock
}

func (m *MockRecordingService) RecordEvent(ctx context.Context, event *activity.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestEvent() *activity.Event {
	c := &contact.Contact{ID: "contact-1", OwnerID: "owner-1", Name: "Ravi", CurrentBalance: 1000, BalanceType: contact.BalanceOwed, Version: 2}
	txn := &contact.Transaction{ID: "txn-1", Direction: contact.DirectionLent, Kind: contact.KindCredit, Amount: 1000}
	return activity.NewEvent(activity.EventTransactionAdded, c, txn, "corr-1", time.Now().UTC())
}
