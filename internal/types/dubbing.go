package types

// CaptionFragment is a single raw timestamped caption unit as received from
// the source-video service. Immutable, ordered by offset.
type CaptionFragment struct {
	Text     string  `json:"text"`
	Offset   float64 `json:"offset"`   // seconds from video start
	Duration float64 `json:"duration"` // seconds
}

// End returns the fragment's end position on the video timeline.
func (f CaptionFragment) End() float64 {
	return f.Offset + f.Duration
}

// TranslationChunk groups contiguous fragments into one translation unit.
// Chunk ids are dense starting at 0 and strictly increasing.
type TranslationChunk struct {
	ID         int               `json:"id"`
	Fragments  []CaptionFragment `json:"fragments"`
	StartTime  float64           `json:"start_time"` // first fragment offset
	EndTime    float64           `json:"end_time"`   // last fragment offset + duration
	SourceText string            `json:"source_text"`
}

// ContentProfile is the whole-video contextual analysis guiding translation.
// Created once per video, read-only afterwards.
type ContentProfile struct {
	Language      string   `json:"language"`
	SpeakerGender string   `json:"speaker_gender"`
	Explicit      bool     `json:"explicit"`
	Tone          string   `json:"tone"`
	Register      string   `json:"register"`
	Audience      string   `json:"audience"`
	CulturalRefs  []string `json:"cultural_references"`
	Terminology   []string `json:"key_terminology"`
}

// DefaultContentProfile is the safe fallback when context analysis fails.
// Neutral tone, non-explicit, generic audience: translation proceeds with
// degraded quality instead of blocking the pipeline.
func DefaultContentProfile() ContentProfile {
	return ContentProfile{
		Language:      "unknown",
		SpeakerGender: "unknown",
		Explicit:      false,
		Tone:          "neutral",
		Register:      "standard",
		Audience:      "general",
	}
}

// DubbedChunk is a chunk after translation and speech synthesis, ready for
// scheduled playback. AudioPayload is nil and AudioDuration 0 when synthesis
// failed; the chunk then degrades to subtitle-only playback.
type DubbedChunk struct {
	ID             int     `json:"id"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	SourceText     string  `json:"source_text"`
	TranslatedText string  `json:"translated_text"`
	AudioPayload   []byte  `json:"-"`
	AudioDuration  float64 `json:"audio_duration"`
}

// Subtitle is a read projection of a DubbedChunk, recomputed on demand.
type Subtitle struct {
	ID        int     `json:"id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// Subtitle projects the chunk onto its subtitle view.
func (c *DubbedChunk) Subtitle() Subtitle {
	return Subtitle{
		ID:        c.ID,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Text:      c.TranslatedText,
	}
}

// ProgressPhase names the pipeline stage currently running for a chunk.
type ProgressPhase string

const (
	PhaseTranslating  ProgressPhase = "translating"
	PhaseSynthesizing ProgressPhase = "synthesizing"
)

// Progress is an ephemeral pipeline progress report. Emitted, never stored.
type Progress struct {
	CurrentChunkIndex int           `json:"current_chunk_index"`
	TotalChunks       int           `json:"total_chunks"`
	PercentComplete   float64       `json:"percent_complete"`
	PreviewText       string        `json:"preview_text"`
	Phase             ProgressPhase `json:"phase"`
}

// VideoMetadata is the source-video service's description of a video.
type VideoMetadata struct {
	Title        string `json:"title"`
	ChannelName  string `json:"channel_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}
