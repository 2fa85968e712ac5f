// Package langsvc wraps the OpenAI-compatible chat completion API used for
// context analysis and translation.
package langsvc

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	apperrors "echodub/pkg/errors"
)

const defaultModel = openai.GPT4oMini

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseUrl, apiKey, model string, proxy *url.URL) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		cfg.BaseURL = baseUrl
	}
	if model == "" {
		model = defaultModel
	}

	transport := &http.Transport{}
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	// No client timeout: reasoning models can hold a translation request open
	// for a long time. Cancellation comes from the caller's context.
	cfg.HTTPClient = &http.Client{Transport: transport}

	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// ChatCompletion sends one system+user exchange and returns the assistant
// text. Quota and 429 failures come back as rate-limit errors so callers can
// retry them.
func (c *Client) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.CodeTranslateFailed, "chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyError converts go-openai transport errors into the local taxonomy.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || isQuotaMessage(apiErr.Message) {
			return &apperrors.RateLimitError{
				Provider:   "openai",
				RetryAfter: parseRetryHint(apiErr.Message),
				Cause:      err,
			}
		}
		return err
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return &apperrors.RateLimitError{Provider: "openai", Cause: err}
	}
	return err
}

func isQuotaMessage(message string) bool {
	message = strings.ToLower(message)
	return strings.Contains(message, "quota") || strings.Contains(message, "rate limit")
}

var retryHintPattern = regexp.MustCompile(`try again in ([0-9.]+m?s|\d+m)`)

// parseRetryHint extracts the "Please try again in 20s" wait the API embeds
// in 429 messages. Zero when absent, letting the retry layer use its default.
func parseRetryHint(message string) time.Duration {
	match := retryHintPattern.FindStringSubmatch(message)
	if match == nil {
		return 0
	}
	d, err := time.ParseDuration(match[1])
	if err != nil {
		return 0
	}
	return d
}
