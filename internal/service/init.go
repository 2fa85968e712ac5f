package service

import (
	"echodub/config"
	"echodub/internal/events"
	"echodub/internal/types"
	"echodub/pkg/langsvc"
	"echodub/pkg/sourcevideo"
	"echodub/pkg/speech"
)

type Service struct {
	ChatCompleter types.ChatCompleter
	Synthesizer   types.SpeechSynthesizer
	Source        types.TranscriptSource
	Hub           *events.Hub
}

func NewService() *Service {
	return &Service{
		ChatCompleter: langsvc.NewClient(
			config.Conf.Llm.BaseUrl,
			config.Conf.Llm.ApiKey,
			config.Conf.Llm.Model,
			config.Conf.App.ParsedProxy,
		),
		Synthesizer: speech.NewClient(
			config.Conf.Speech.BaseUrl,
			config.Conf.Speech.ApiKey,
			config.Conf.Speech.SampleRate,
		),
		Source: sourcevideo.NewClient(
			config.Conf.SourceVideo.BaseUrl,
			config.Conf.SourceVideo.ApiKey,
		),
		Hub: events.NewHub(),
	}
}
