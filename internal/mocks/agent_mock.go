package mocks

import (
	"context"
	"io"

	"github.com/noamgl/yoman/internal/agent"
	"github.com/stretchr/testify/mock"
)

// MockClassifier is a mock implementation of the intent classifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, text string, turn agent.TurnContext) (*agent.ClassifiedIntent, error) {
	args := m.Called(ctx, text, turn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.ClassifiedIntent), args.Error(1)
}

func (m *MockClassifier) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockTranscriber is a mock implementation of the voice transcriber
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	args := m.Called(ctx, filename, audio)
	return args.String(0), args.Error(1)
}

func (m *MockTranscriber) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}
