// Package sourcevideo fetches video metadata and caption tracks from the
// source video platform API.
package sourcevideo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"echodub/internal/types"
	apperrors "echodub/pkg/errors"
)

const requestTimeout = 30 * time.Second

type Client struct {
	http *resty.Client
}

func NewClient(baseUrl, apiKey string) *Client {
	c := resty.New().
		SetBaseURL(baseUrl).
		SetTimeout(requestTimeout).
		SetRetryCount(2).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() >= http.StatusInternalServerError
		})
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{http: c}
}

type metadataResponse struct {
	Title        string `json:"title"`
	ChannelName  string `json:"channel_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type transcriptResponse struct {
	Language string            `json:"language"`
	Events   []transcriptEvent `json:"events"`
}

type transcriptEvent struct {
	Text     string  `json:"text"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
}

// FetchMetadata returns the display metadata of a video.
func (c *Client) FetchMetadata(ctx context.Context, videoId string) (*types.VideoMetadata, error) {
	var body metadataResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/videos/" + videoId)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMetadataFetch, "metadata request failed", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperrors.ErrVideoNotFound
	}
	if resp.IsError() {
		return nil, apperrors.New(apperrors.CodeMetadataFetch,
			fmt.Sprintf("metadata request returned status %d", resp.StatusCode()))
	}
	return &types.VideoMetadata{
		Title:        body.Title,
		ChannelName:  body.ChannelName,
		ThumbnailURL: body.ThumbnailURL,
	}, nil
}

// FetchTranscript returns the caption track of a video as timed fragments.
// A video without captions yields ErrTranscriptNotFound; a caption track with
// no usable text yields ErrTranscriptEmpty.
func (c *Client) FetchTranscript(ctx context.Context, videoId string) ([]types.CaptionFragment, error) {
	var body transcriptResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/videos/" + videoId + "/transcript")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTranscriptNotFound, "transcript request failed", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperrors.ErrTranscriptNotFound
	}
	if resp.IsError() {
		return nil, apperrors.New(apperrors.CodeTranscriptNotFound,
			fmt.Sprintf("transcript request returned status %d", resp.StatusCode()))
	}

	fragments := make([]types.CaptionFragment, 0, len(body.Events))
	for _, event := range body.Events {
		if event.Text == "" {
			continue
		}
		fragments = append(fragments, types.CaptionFragment{
			Text:     event.Text,
			Offset:   event.Offset,
			Duration: event.Duration,
		})
	}
	if len(fragments) == 0 {
		return nil, apperrors.ErrTranscriptEmpty
	}
	return fragments, nil
}
