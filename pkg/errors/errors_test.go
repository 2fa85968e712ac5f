package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	// Test without cause
	err := New(CodeVideoNotFound, "Test error")
	assert.Equal(t, "[1100] Test error", err.Error())

	// Test with cause
	cause := errors.New("underlying error")
	errWithCause := Wrap(CodeVideoNotFound, "Test error", cause)
	assert.Contains(t, errWithCause.Error(), "underlying error")
	assert.Contains(t, errWithCause.Error(), "1100")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(CodeTranslateFailed, "Translation failed", cause)

	// Test Unwrap
	assert.Equal(t, cause, err.Unwrap())

	// Test errors.Is
	assert.True(t, errors.Is(err, cause))
}

func TestIs(t *testing.T) {
	err := New(CodeSynthesisFailed, "TTS failed")

	assert.True(t, Is(err, CodeSynthesisFailed))
	assert.False(t, Is(err, CodeVideoNotFound))

	// Test with regular error
	regularErr := errors.New("regular error")
	assert.False(t, Is(regularErr, CodeSynthesisFailed))
}

func TestGetCode(t *testing.T) {
	// AppError
	appErr := New(CodeLLMQuotaExceeded, "Quota exceeded")
	assert.Equal(t, CodeLLMQuotaExceeded, GetCode(appErr))

	// Regular error returns CodeUnknown
	regularErr := errors.New("regular error")
	assert.Equal(t, CodeUnknown, GetCode(regularErr))
}

func TestGetMessage(t *testing.T) {
	// AppError
	appErr := New(CodeFileNotFound, "File not found")
	assert.Equal(t, "File not found", GetMessage(appErr))

	// Regular error returns error message
	regularErr := errors.New("regular error message")
	assert.Equal(t, "regular error message", GetMessage(regularErr))
}

func TestIsRateLimit(t *testing.T) {
	rle := &RateLimitError{Provider: "speech", RetryAfter: 3 * time.Second}
	assert.True(t, IsRateLimit(rle))

	// Wrapped RateLimitError is still detected
	assert.True(t, IsRateLimit(fmt.Errorf("synthesize: %w", rle)))

	// Coded quota errors
	assert.True(t, IsRateLimit(ErrLLMQuotaExceeded))
	assert.True(t, IsRateLimit(ErrTTSQuotaExceeded))

	// Marker text from providers that only speak strings
	assert.True(t, IsRateLimit(errors.New("openai: status code: 429")))
	assert.True(t, IsRateLimit(errors.New("insufficient quota remaining")))

	// Genuine failures are not retryable
	assert.False(t, IsRateLimit(errors.New("invalid input")))
	assert.False(t, IsRateLimit(nil))
}

func TestRetryAfterHint(t *testing.T) {
	rle := &RateLimitError{Provider: "llm", RetryAfter: 7 * time.Second}
	assert.Equal(t, 7*time.Second, RetryAfterHint(fmt.Errorf("translate: %w", rle)))

	// No hint available
	assert.Equal(t, time.Duration(0), RetryAfterHint(errors.New("rate limit")))
}
