// Package errors provides structured error handling for the application.
// It defines AppError type with error codes for consistent API responses.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error codes organized by category
const (
	// General errors (1000-1099)
	CodeSuccess       = 0
	CodeUnknown       = 1000
	CodeInvalidParams = 1001
	CodeNotFound      = 1002
	CodeUnauthorized  = 1003

	// Source video errors (1100-1199)
	CodeVideoNotFound      = 1100
	CodeTranscriptNotFound = 1101
	CodeTranscriptEmpty    = 1102
	CodeMetadataFetch      = 1103

	// Translation errors (1300-1399)
	CodeTranslateFailed  = 1300
	CodeContextAnalysis  = 1301
	CodeLLMQuotaExceeded = 1302
	CodeRetriesExhausted = 1303

	// Speech synthesis errors (1400-1499)
	CodeSynthesisFailed  = 1400
	CodeTTSQuotaExceeded = 1401
	CodeVoiceNotFound    = 1402

	// Storage errors (1500-1599)
	CodeDBError        = 1500
	CodeFileNotFound   = 1501
	CodeFileWriteError = 1502

	// Sync engine errors (1600-1699)
	CodeAudioDecodeFailed = 1600
	CodeEngineDestroyed   = 1601
	CodeEngineNotLoaded   = 1602
)

// AppError represents a structured application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetail wraps an error with additional detail
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// Is checks if the target error is an AppError with the specified code
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts error code from error, returns CodeUnknown if not AppError
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage extracts message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// RateLimitError marks a transient quota/rate-limit rejection from a
// provider. RetryAfter is the provider-advertised backoff, zero when the
// provider did not communicate one.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Cause      error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limited", e.Provider)
}

func (e *RateLimitError) Unwrap() error {
	return e.Cause
}

// quota-exhaustion markers some providers only surface in message text
var rateLimitMarkers = []string{
	"rate limit",
	"rate_limit",
	"quota",
	"too many requests",
	"status code: 429",
}

// IsRateLimit reports whether err is a transient rate-limit/quota condition
// that is worth retrying.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	if Is(err, CodeLLMQuotaExceeded) || Is(err, CodeTTSQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RetryAfterHint extracts the provider-advertised backoff from err, zero when
// none was communicated.
func RetryAfterHint(err error) time.Duration {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter
	}
	return 0
}

// Predefined common errors
var (
	ErrInvalidParams = New(CodeInvalidParams, "Invalid parameters")
	ErrNotFound      = New(CodeNotFound, "Resource not found")
	ErrUnauthorized  = New(CodeUnauthorized, "Unauthorized")

	// Source video
	ErrVideoNotFound      = New(CodeVideoNotFound, "Video not found")
	ErrTranscriptNotFound = New(CodeTranscriptNotFound, "No captions available for this video")
	ErrTranscriptEmpty    = New(CodeTranscriptEmpty, "Transcript contains no usable segments")

	// Translation
	ErrTranslateFailed  = New(CodeTranslateFailed, "Translation failed")
	ErrLLMQuotaExceeded = New(CodeLLMQuotaExceeded, "LLM quota exceeded")
	ErrRetriesExhausted = New(CodeRetriesExhausted, "Retries exhausted")

	// Speech
	ErrSynthesisFailed  = New(CodeSynthesisFailed, "Speech synthesis failed")
	ErrTTSQuotaExceeded = New(CodeTTSQuotaExceeded, "TTS quota exceeded")
	ErrVoiceNotFound    = New(CodeVoiceNotFound, "Voice not found")

	// Storage
	ErrDBError      = New(CodeDBError, "Database error")
	ErrFileNotFound = New(CodeFileNotFound, "File not found")

	// Sync engine
	ErrEngineDestroyed = New(CodeEngineDestroyed, "Audio sync engine already destroyed")
	ErrEngineNotLoaded = New(CodeEngineNotLoaded, "No chunks loaded into the engine")
)
