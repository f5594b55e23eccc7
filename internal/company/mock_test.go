package company

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/jobtrack/internal/model"
)

// mockStore implements Store for testing.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListCompanies(ctx context.Context, userID string) ([]model.Company, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *mockStore) ListContacts(ctx context.Context, userID string) ([]model.Contact, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Contact), args.Error(1)
}

func (m *mockStore) InsertCompany(ctx context.Context, c *model.Company) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) InsertContact(ctx context.Context, c *model.Contact) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}
