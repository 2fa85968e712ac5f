package types

import "context"

// ChatCompleter is the language-service surface both translation and context
// analysis speak. Quota exhaustion surfaces as a retryable rate-limit error,
// invalid input as a fatal one.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// SpeechSynthesizer turns translated text into encoded audio bytes
// (raw mono 16-bit PCM at the service's configured sample rate).
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// TranscriptSource is the source-video service: title/thumbnail metadata and
// raw timestamped caption fragments. FetchTranscript fails with a
// NotFound-style error when the video has no captions.
type TranscriptSource interface {
	FetchMetadata(ctx context.Context, videoID string) (*VideoMetadata, error)
	FetchTranscript(ctx context.Context, videoID string) ([]CaptionFragment, error)
}
