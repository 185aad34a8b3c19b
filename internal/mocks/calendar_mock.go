package mocks

import (
	"context"
	"time"

	"github.com/noamgl/yoman/internal/gcal"
	"github.com/stretchr/testify/mock"
)

// MockCalendar is a mock implementation of the calendar client
type MockCalendar struct {
	mock.Mock
}

func (m *MockCalendar) SearchEvents(ctx context.Context, userID int64, query string, from, to time.Time, max int64) ([]gcal.EventDetails, error) {
	args := m.Called(ctx, userID, query, from, to, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gcal.EventDetails), args.Error(1)
}

func (m *MockCalendar) CreateEvent(ctx context.Context, userID int64, input gcal.EventInput) (*gcal.EventDetails, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcal.EventDetails), args.Error(1)
}

func (m *MockCalendar) PatchEvent(ctx context.Context, userID int64, eventID string, patch gcal.EventPatch) (*gcal.EventDetails, error) {
	args := m.Called(ctx, userID, eventID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcal.EventDetails), args.Error(1)
}

func (m *MockCalendar) DeleteEvent(ctx context.Context, userID int64, eventID string) error {
	args := m.Called(ctx, userID, eventID)
	return args.Error(0)
}

func (m *MockCalendar) GetEvent(ctx context.Context, userID int64, eventID string) (*gcal.EventDetails, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcal.EventDetails), args.Error(1)
}
