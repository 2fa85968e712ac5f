package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"echodub/internal/mocks"
	"echodub/internal/types"
	"echodub/log"
	apperrors "echodub/pkg/errors"
)

func init() {
	log.InitLogger()
}

func testChunks(n int) []types.TranslationChunk {
	chunks := make([]types.TranslationChunk, n)
	for i := range chunks {
		start := float64(i * 5)
		chunks[i] = types.TranslationChunk{
			ID:         i,
			StartTime:  start,
			EndTime:    start + 5,
			SourceText: fmt.Sprintf("source %d", i),
		}
	}
	return chunks
}

func testConfig() Config {
	return Config{
		TargetLanguage: "German",
		Voice:          "de-neural-1",
		MaxRetries:     0,
		SampleRate:     24000,
	}
}

func TestRunTranslatesAndSynthesizesInOrder(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	synthesizer := new(mocks.MockSpeechSynthesizer)

	for i := 0; i < 3; i++ {
		i := i
		completer.On("ChatCompletion", mock.Anything, mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, fmt.Sprintf("source %d", i))
		})).Return(fmt.Sprintf("übersetzt %d", i), nil).Once()
	}
	// 24000 samples/s * 2 bytes * 1s
	audio := make([]byte, 48000)
	synthesizer.On("Synthesize", mock.Anything, mock.Anything, "de-neural-1").Return(audio, nil).Times(3)

	p := New(completer, synthesizer)
	results, err := p.Run(context.Background(), testChunks(3), types.DefaultContentProfile(), testConfig(), nil)

	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, chunk := range results {
		assert.Equal(t, i, chunk.ID, "output order must match input order")
		assert.Equal(t, fmt.Sprintf("übersetzt %d", i), chunk.TranslatedText)
		assert.InDelta(t, 1.0, chunk.AudioDuration, 1e-9)
	}
	completer.AssertExpectations(t)
	synthesizer.AssertExpectations(t)
}

func TestRunProgressReporting(t *testing.T) {
	const n = 4
	completer := new(mocks.MockChatCompleter)
	synthesizer := new(mocks.MockSpeechSynthesizer)
	completer.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).Return("translated", nil)
	synthesizer.On("Synthesize", mock.Anything, mock.Anything, mock.Anything).Return(make([]byte, 2), nil)

	var events []types.Progress
	p := New(completer, synthesizer)
	_, err := p.Run(context.Background(), testChunks(n), types.DefaultContentProfile(), testConfig(), func(progress types.Progress) {
		events = append(events, progress)
	})
	require.NoError(t, err)

	// 2N phase events plus a final 100%
	require.Len(t, events, 2*n+1)

	last := 0.0
	for _, event := range events {
		assert.GreaterOrEqual(t, event.PercentComplete, last, "percentages must be non-decreasing")
		last = event.PercentComplete
	}
	assert.Equal(t, 100.0, events[len(events)-1].PercentComplete)

	assert.Equal(t, types.PhaseTranslating, events[0].Phase)
	assert.Equal(t, types.PhaseSynthesizing, events[1].Phase)
}

func TestRunSynthesisFailureDegradesChunk(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	synthesizer := new(mocks.MockSpeechSynthesizer)
	completer.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).Return("translated", nil)

	synthesizer.On("Synthesize", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("voice busy")).Once()
	synthesizer.On("Synthesize", mock.Anything, mock.Anything, mock.Anything).Return(make([]byte, 48000), nil).Once()

	p := New(completer, synthesizer)
	results, err := p.Run(context.Background(), testChunks(2), types.DefaultContentProfile(), testConfig(), nil)

	require.NoError(t, err, "synthesis failure must not abort the run")
	require.Len(t, results, 2)

	assert.Nil(t, results[0].AudioPayload)
	assert.Zero(t, results[0].AudioDuration)
	assert.Equal(t, "translated", results[0].TranslatedText, "subtitle text survives a silent chunk")

	assert.NotNil(t, results[1].AudioPayload)
}

func TestRunTranslationFailureIsFatal(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	synthesizer := new(mocks.MockSpeechSynthesizer)
	completer.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("invalid input"))

	p := New(completer, synthesizer)
	results, err := p.Run(context.Background(), testChunks(2), types.DefaultContentProfile(), testConfig(), nil)

	assert.Nil(t, results)
	assert.True(t, apperrors.Is(err, apperrors.CodeTranslateFailed))
	synthesizer.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunRollingConsistencyWindow(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	synthesizer := new(mocks.MockSpeechSynthesizer)
	synthesizer.On("Synthesize", mock.Anything, mock.Anything, mock.Anything).Return(make([]byte, 2), nil)

	var prompts []string
	completer.On("ChatCompletion", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompts = append(prompts, args.String(2))
	}).Return("t", nil)

	p := New(completer, synthesizer)
	_, err := p.Run(context.Background(), testChunks(5), types.DefaultContentProfile(), testConfig(), nil)
	require.NoError(t, err)
	require.Len(t, prompts, 5)

	// First chunk has no history
	assert.Contains(t, prompts[0], "(none yet)")
	// Fifth chunk sees exactly the last three translations, not four
	assert.Contains(t, prompts[4], "t\nt\nt\n\nTranslate")
	assert.NotContains(t, prompts[4], "t\nt\nt\nt")
}

func TestRunCensorFlagSwitchesInstruction(t *testing.T) {
	profile := types.DefaultContentProfile()

	censored := buildSystemPrompt(profile, Config{TargetLanguage: "French", CensorExplicit: true})
	assert.Contains(t, censored, types.CensorInstruction)

	verbatim := buildSystemPrompt(profile, Config{TargetLanguage: "French"})
	assert.Contains(t, verbatim, types.PreserveInstruction)
}

func TestRunEmptyInput(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	synthesizer := new(mocks.MockSpeechSynthesizer)

	var events []types.Progress
	p := New(completer, synthesizer)
	results, err := p.Run(context.Background(), nil, types.DefaultContentProfile(), testConfig(), func(progress types.Progress) {
		events = append(events, progress)
	})

	require.NoError(t, err)
	assert.Empty(t, results)
	// Still one final 100% event
	require.Len(t, events, 1)
	assert.Equal(t, 100.0, events[0].PercentComplete)
}
