// Package analysis produces the whole-video content profile that steers
// every chunk translation.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"go.uber.org/zap"

	"echodub/internal/types"
	"echodub/log"
	"echodub/pkg/retry"
	"echodub/pkg/util"
)

const (
	// Downstream translation only needs global tone/terminology, so a
	// bounded prefix of the transcript is enough.
	maxAnalysisChars = 3000

	// Terminology entries closer than this ratio are duplicates.
	termSimilarityThreshold = 0.85
)

// Analyzer performs the one-shot context analysis call.
type Analyzer struct {
	completer  types.ChatCompleter
	maxRetries int
}

func NewAnalyzer(completer types.ChatCompleter, maxRetries int) *Analyzer {
	return &Analyzer{
		completer:  completer,
		maxRetries: maxRetries,
	}
}

// Analyze profiles the transcript. Any failure (service error, unparseable
// reply) degrades to the default profile instead of failing the caller:
// a missing profile only lowers translation quality, it must never block
// the pipeline.
func (a *Analyzer) Analyze(ctx context.Context, fullText string) types.ContentProfile {
	excerpt := truncateRunes(fullText, maxAnalysisChars)
	if strings.TrimSpace(excerpt) == "" {
		return types.DefaultContentProfile()
	}

	prompt := fmt.Sprintf(types.ContextAnalysisPrompt, excerpt)
	raw, err := retry.Do(ctx, func(ctx context.Context) (string, error) {
		return a.completer.ChatCompletion(ctx, "", prompt)
	}, a.maxRetries)
	if err != nil {
		log.GetLogger().Warn("context analysis failed, using default profile", zap.Error(err))
		return types.DefaultContentProfile()
	}

	var profile types.ContentProfile
	if err := json.Unmarshal([]byte(util.ExtractJSONFromText(raw)), &profile); err != nil {
		log.GetLogger().Warn("context analysis reply unparseable, using default profile",
			zap.String("reply", truncateRunes(raw, 200)),
			zap.Error(err))
		return types.DefaultContentProfile()
	}

	normalizeProfile(&profile)
	profile.Terminology = dedupeTerms(profile.Terminology)
	return profile
}

func normalizeProfile(profile *types.ContentProfile) {
	defaults := types.DefaultContentProfile()
	if strings.TrimSpace(profile.Language) == "" {
		profile.Language = defaults.Language
	}
	if strings.TrimSpace(profile.SpeakerGender) == "" {
		profile.SpeakerGender = defaults.SpeakerGender
	}
	if strings.TrimSpace(profile.Tone) == "" {
		profile.Tone = defaults.Tone
	}
	if strings.TrimSpace(profile.Register) == "" {
		profile.Register = defaults.Register
	}
	if strings.TrimSpace(profile.Audience) == "" {
		profile.Audience = defaults.Audience
	}
}

// dedupeTerms collapses near-identical glossary entries the model tends to
// emit ("Kubernetes" vs "kubernetes", singular/plural variants).
func dedupeTerms(terms []string) []string {
	kept := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		duplicate := false
		for _, existing := range kept {
			ratio := levenshtein.RatioForStrings(
				[]rune(strings.ToLower(existing)),
				[]rune(strings.ToLower(term)),
				levenshtein.DefaultOptions)
			if ratio >= termSimilarityThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, term)
		}
	}
	return kept
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
