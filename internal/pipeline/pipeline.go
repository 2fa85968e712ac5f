// Package pipeline translates and voices translation chunks sequentially,
// preserving chunk order and a rolling terminology-consistency window.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"echodub/internal/types"
	"echodub/log"
	apperrors "echodub/pkg/errors"
	"echodub/pkg/retry"
	"echodub/pkg/util"
)

// consistencyWindowSize caps how many previous translations ride along in
// each prompt. Causal order matters, so chunks are never translated in
// parallel.
const consistencyWindowSize = 3

// Config carries the per-run settings of a dubbing pipeline.
type Config struct {
	TargetLanguage string
	Voice          string
	CensorExplicit bool
	MaxRetries     int
	SampleRate     int // output sample rate of the speech service (mono 16-bit)
}

// ProgressFunc receives progress reports. Called before each phase of each
// chunk and once more with 100% after the last chunk.
type ProgressFunc func(types.Progress)

// Pipeline runs the translate+synthesize loop against the external services.
type Pipeline struct {
	completer   types.ChatCompleter
	synthesizer types.SpeechSynthesizer
}

func New(completer types.ChatCompleter, synthesizer types.SpeechSynthesizer) *Pipeline {
	return &Pipeline{
		completer:   completer,
		synthesizer: synthesizer,
	}
}

// Run processes chunks strictly in order. Translation failure on any chunk is
// fatal to the whole run; synthesis failure degrades that chunk to
// subtitle-only (nil payload, zero duration) and the run continues.
func (p *Pipeline) Run(ctx context.Context, chunks []types.TranslationChunk, profile types.ContentProfile, cfg Config, onProgress ProgressFunc) ([]*types.DubbedChunk, error) {
	total := len(chunks)
	report := func(progress types.Progress) {
		if onProgress != nil {
			onProgress(progress)
		}
	}

	systemPrompt := buildSystemPrompt(profile, cfg)
	results := make([]*types.DubbedChunk, 0, total)
	var window []string

	for i, chunk := range chunks {
		report(types.Progress{
			CurrentChunkIndex: i,
			TotalChunks:       total,
			PercentComplete:   percent(2*i, total),
			PreviewText:       chunk.SourceText,
			Phase:             types.PhaseTranslating,
		})

		translated, err := p.translate(ctx, systemPrompt, window, chunk.SourceText, cfg.MaxRetries)
		if err != nil {
			// Without a translation there is nothing to synthesize or to
			// show as a subtitle, and skipping would corrupt chunk order.
			log.GetLogger().Error("chunk translation failed",
				zap.Int("chunk_id", chunk.ID),
				zap.Error(err))
			return nil, apperrors.Wrap(apperrors.CodeTranslateFailed,
				fmt.Sprintf("translation failed on chunk %d", chunk.ID), err)
		}

		window = append(window, translated)
		if len(window) > consistencyWindowSize {
			window = window[len(window)-consistencyWindowSize:]
		}

		report(types.Progress{
			CurrentChunkIndex: i,
			TotalChunks:       total,
			PercentComplete:   percent(2*i+1, total),
			PreviewText:       translated,
			Phase:             types.PhaseSynthesizing,
		})

		dubbed := &types.DubbedChunk{
			ID:             chunk.ID,
			StartTime:      chunk.StartTime,
			EndTime:        chunk.EndTime,
			SourceText:     chunk.SourceText,
			TranslatedText: translated,
		}

		audio, err := retry.Do(ctx, func(ctx context.Context) ([]byte, error) {
			return p.synthesizer.Synthesize(ctx, translated, cfg.Voice)
		}, cfg.MaxRetries)
		if err != nil {
			// Degrade this chunk to silent, subtitle-only playback.
			log.GetLogger().Warn("chunk synthesis failed, continuing without audio",
				zap.Int("chunk_id", chunk.ID),
				zap.Error(err))
		} else {
			dubbed.AudioPayload = audio
			dubbed.AudioDuration = util.PCMDuration(len(audio), cfg.SampleRate)
		}

		results = append(results, dubbed)
	}

	final := types.Progress{
		CurrentChunkIndex: total,
		TotalChunks:       total,
		PercentComplete:   100,
		Phase:             types.PhaseSynthesizing,
	}
	if total > 0 {
		final.CurrentChunkIndex = total - 1
		final.PreviewText = results[total-1].TranslatedText
	}
	report(final)

	return results, nil
}

func (p *Pipeline) translate(ctx context.Context, systemPrompt string, window []string, sourceText string, maxRetries int) (string, error) {
	previous := "(none yet)"
	if len(window) > 0 {
		previous = strings.Join(window, "\n")
	}
	userPrompt := fmt.Sprintf(types.TranslateUserPrompt, previous, sourceText)

	translated, err := retry.Do(ctx, func(ctx context.Context) (string, error) {
		return p.completer.ChatCompletion(ctx, systemPrompt, userPrompt)
	}, maxRetries)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(translated), nil
}

func buildSystemPrompt(profile types.ContentProfile, cfg Config) string {
	terminology := "(none)"
	if len(profile.Terminology) > 0 {
		terminology = strings.Join(profile.Terminology, ", ")
	}
	explicitRule := types.PreserveInstruction
	if cfg.CensorExplicit {
		explicitRule = types.CensorInstruction
	}
	return fmt.Sprintf(types.TranslateSystemPrompt,
		cfg.TargetLanguage,
		profile.Tone,
		profile.Register,
		profile.Audience,
		terminology,
		explicitRule)
}

func percent(step, totalChunks int) float64 {
	if totalChunks == 0 {
		return 100
	}
	return float64(step) / float64(2*totalChunks) * 100
}
