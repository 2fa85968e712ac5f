// Package speech wraps the text-to-speech HTTP API that voices translated
// chunks as raw mono 16-bit PCM.
package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "echodub/pkg/errors"
)

const (
	defaultSampleRate = 24000
	requestTimeout    = 60 * time.Second
)

type Client struct {
	http       *resty.Client
	apiKey     string
	sampleRate int
}

func NewClient(baseUrl, apiKey string, sampleRate int) *Client {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseUrl).
			SetTimeout(requestTimeout),
		apiKey:     apiKey,
		sampleRate: sampleRate,
	}
}

// SampleRate is the PCM rate of every payload this client returns.
func (c *Client) SampleRate() int {
	return c.sampleRate
}

type synthesizeRequest struct {
	Text         string       `json:"text"`
	VoiceSetting voiceSetting `json:"voice_setting"`
	AudioSetting audioSetting `json:"audio_setting"`
}

type voiceSetting struct {
	VoiceId string `json:"voice_id"`
}

type audioSetting struct {
	SampleRate int    `json:"sample_rate"`
	Format     string `json:"format"`
	Channel    int    `json:"channel"`
}

type synthesizeResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"` // base64 PCM
}

// Synthesize voices text with the given voice and returns raw PCM bytes.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	reqBody := synthesizeRequest{
		Text: text,
		VoiceSetting: voiceSetting{
			VoiceId: voice,
		},
		AudioSetting: audioSetting{
			SampleRate: c.sampleRate,
			Format:     "pcm",
			Channel:    1,
		},
	}

	var respBody synthesizeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(reqBody).
		SetResult(&respBody).
		Post("/v1/t2a")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSynthesisFailed, "speech request failed", err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, &apperrors.RateLimitError{
			Provider:   "speech",
			RetryAfter: retryAfterHeader(resp),
			Cause:      fmt.Errorf("speech service returned status %d", resp.StatusCode()),
		}
	}
	if resp.IsError() {
		return nil, apperrors.New(apperrors.CodeSynthesisFailed,
			fmt.Sprintf("speech service returned status %d: %s", resp.StatusCode(), resp.String()))
	}
	if respBody.Code != 0 {
		return nil, apperrors.New(apperrors.CodeSynthesisFailed,
			fmt.Sprintf("speech service error %d: %s", respBody.Code, respBody.Message))
	}
	if respBody.Data == "" {
		return nil, apperrors.New(apperrors.CodeSynthesisFailed, "speech service returned no audio data")
	}

	pcm, err := base64.StdEncoding.DecodeString(respBody.Data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSynthesisFailed, "decode base64 audio failed", err)
	}
	return pcm, nil
}

func retryAfterHeader(resp *resty.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header().Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
