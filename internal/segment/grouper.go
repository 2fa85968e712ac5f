// Package segment groups raw caption fragments into translation-ready chunks.
package segment

import (
	"strings"

	"echodub/internal/types"
)

// Two-threshold grouping policy: longer chunks give the translator more
// context for idiom resolution, shorter chunks surface audio sooner and bound
// the blast radius of a synthesis failure.
const (
	// MaxChunkDuration closes a chunk unconditionally.
	MaxChunkDuration = 15.0
	// MinChunkDuration must be reached before sentence-terminal punctuation
	// is allowed to close a chunk.
	MinChunkDuration = 3.0
)

// Group scans fragments in order and accumulates them into chunks. A chunk
// closes when its accumulated duration reaches MaxChunkDuration, or when it
// has reached MinChunkDuration and the last fragment ends a sentence.
// Fragments are never split or reordered; leftovers form a final partial
// chunk even below MinChunkDuration.
func Group(fragments []types.CaptionFragment) []types.TranslationChunk {
	if len(fragments) == 0 {
		return nil
	}

	chunks := make([]types.TranslationChunk, 0, len(fragments)/4+1)
	var current []types.CaptionFragment
	var accumulated float64

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, buildChunk(len(chunks), current))
		current = nil
		accumulated = 0
	}

	for _, fragment := range fragments {
		current = append(current, fragment)
		accumulated += fragment.Duration

		if accumulated >= MaxChunkDuration {
			flush()
			continue
		}
		if accumulated >= MinChunkDuration && endsSentence(fragment.Text) {
			flush()
		}
	}
	flush()

	return chunks
}

func buildChunk(id int, fragments []types.CaptionFragment) types.TranslationChunk {
	texts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		texts = append(texts, fragment.Text)
	}
	last := fragments[len(fragments)-1]
	return types.TranslationChunk{
		ID:         id,
		Fragments:  fragments,
		StartTime:  fragments[0].Offset,
		EndTime:    last.Offset + last.Duration,
		SourceText: strings.Join(texts, " "),
	}
}

func endsSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', ';', ':':
		return true
	}
	return false
}
