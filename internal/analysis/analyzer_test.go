package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"echodub/internal/mocks"
	"echodub/internal/types"
	"echodub/log"
)

func init() {
	log.InitLogger()
}

func TestAnalyzeParsesProfile(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.Anything, "", mock.Anything).Return(
		"Sure, here is the analysis:\n```json\n"+
			`{"language":"English","speaker_gender":"female","explicit":true,`+
			`"tone":"sarcastic","register":"colloquial","audience":"gamers",`+
			`"cultural_references":["speedrunning"],`+
			`"key_terminology":["frame-perfect","Frame-perfect","glitchless"]}`+
			"\n```", nil)

	analyzer := NewAnalyzer(completer, 1)
	profile := analyzer.Analyze(context.Background(), "some transcript text")

	assert.Equal(t, "English", profile.Language)
	assert.Equal(t, "female", profile.SpeakerGender)
	assert.True(t, profile.Explicit)
	assert.Equal(t, "sarcastic", profile.Tone)
	// case-variant duplicate collapses
	assert.Equal(t, []string{"frame-perfect", "glitchless"}, profile.Terminology)
	completer.AssertExpectations(t)
}

func TestAnalyzeServiceErrorYieldsDefaultProfile(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.Anything, "", mock.Anything).Return("", errors.New("bad request"))

	analyzer := NewAnalyzer(completer, 0)
	profile := analyzer.Analyze(context.Background(), "text")

	assert.Equal(t, types.DefaultContentProfile(), profile)
}

func TestAnalyzeUnparseableReplyYieldsDefaultProfile(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.Anything, "", mock.Anything).Return("I cannot help with that.", nil)

	analyzer := NewAnalyzer(completer, 0)
	profile := analyzer.Analyze(context.Background(), "text")

	assert.Equal(t, types.DefaultContentProfile(), profile)
}

func TestAnalyzeTruncatesLongTranscripts(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.Anything, "", mock.MatchedBy(func(prompt string) bool {
		// prompt template plus at most maxAnalysisChars of transcript
		return len([]rune(prompt)) < maxAnalysisChars+1000
	})).Return(`{"tone":"neutral"}`, nil)

	analyzer := NewAnalyzer(completer, 0)
	analyzer.Analyze(context.Background(), strings.Repeat("word ", 5000))

	completer.AssertExpectations(t)
}

func TestAnalyzeEmptyTranscriptSkipsServiceCall(t *testing.T) {
	completer := new(mocks.MockChatCompleter)

	analyzer := NewAnalyzer(completer, 0)
	profile := analyzer.Analyze(context.Background(), "   \n ")

	assert.Equal(t, types.DefaultContentProfile(), profile)
	completer.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything, mock.Anything)
}

func TestDedupeTerms(t *testing.T) {
	terms := dedupeTerms([]string{"Kubernetes", "kubernetes", "kube", "", "  Pods  ", "pod"})
	assert.Equal(t, []string{"Kubernetes", "kube", "Pods"}, terms)
}
