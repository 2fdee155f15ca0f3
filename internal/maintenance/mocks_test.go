package maintenance

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lifesync-ledger/internal/domain/contact"
)

// MockContactRepository for testing; Scan replays the contacts given to Return
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, c *contact.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContactRepository) GetByID(ctx context.Context, ownerID, contactID string) (*contact.Contact, error) {
	args := m.Called(ctx, ownerID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contact.Contact), args.Error(1)
}

func (m *MockContactRepository) List(ctx context.Context, ownerID string, filter contact.ListFilter) ([]*contact.Contact, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contact.Contact), args.Error(1)
}

func (m *MockContactRepository) Update(ctx context.Context, c *contact.Contact, expectedVersion int64) error {
	args := m.Called(ctx, c, expectedVersion)
	return args.Error(0)
}

func (m *MockContactRepository) Delete(ctx context.Context, ownerID, contactID string) error {
	args := m.Called(ctx, ownerID, contactID)
	return args.Error(0)
}

func (m *MockContactRepository) BalanceGroups(ctx context.Context, ownerID string) ([]contact.BalanceGroup, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contact.BalanceGroup), args.Error(1)
}

func (m *MockContactRepository) Scan(ctx context.Context, fn func(*contact.Contact) error) error {
	args := m.Called(ctx)
	for _, c := range args.Get(0).([]*contact.Contact) {
		if err := fn(c); err != nil {
			return err
		}
	}
	return args.Error(1)
}

// MockLegacyRepository for testing
type MockLegacyRepository struct {
	mock.Mock
}

func (m *MockLegacyRepository) Scan(ctx context.Context, fn func(contact.LegacyLoan) error) error {
	args := m.Called(ctx)
	for _, loan := range args.Get(0).([]contact.LegacyLoan) {
		if err := fn(loan); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
