package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockMessenger is a mock implementation of the Telegram sender
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendMessage(ctx context.Context, telegramID int64, text string) (int, error) {
	args := m.Called(ctx, telegramID, text)
	return args.Int(0), args.Error(1)
}

// MockNotifier is a mock implementation of the email notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, recipient, subject, html string) error {
	args := m.Called(ctx, recipient, subject, html)
	return args.Error(0)
}

func (m *MockNotifier) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotifier) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}
