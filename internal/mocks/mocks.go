// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"
	"echodub/internal/types"

	"github.com/stretchr/testify/mock"
)

// MockChatCompleter is a mock implementation of types.ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

// MockSpeechSynthesizer is a mock implementation of types.SpeechSynthesizer
type MockSpeechSynthesizer struct {
	mock.Mock
}

func (m *MockSpeechSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	args := m.Called(ctx, text, voice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockTranscriptSource is a mock implementation of types.TranscriptSource
type MockTranscriptSource struct {
	mock.Mock
}

func (m *MockTranscriptSource) FetchMetadata(ctx context.Context, videoID string) (*types.VideoMetadata, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.VideoMetadata), args.Error(1)
}

func (m *MockTranscriptSource) FetchTranscript(ctx context.Context, videoID string) ([]types.CaptionFragment, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CaptionFragment), args.Error(1)
}
