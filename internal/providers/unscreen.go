package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"assetgen/internal/domain"
)

const (
	unscreenDefaultTimeout = 60 * time.Second
	unscreenPollInterval   = 5 * time.Second
)

// UnscreenOptions controls the unscreen adapter.
type UnscreenOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Unscreen removes video backgrounds through the unscreen API. It is the
// only provider supporting the remove_background operation.
type Unscreen struct {
	apiKey string
	base   string
	client *http.Client
}

var unscreenOps = opSet{
	domain.JobTypeVideo: {domain.OpRemoveBackground},
}

// NewUnscreen builds the adapter; the API key is required.
func NewUnscreen(opts UnscreenOptions) (*Unscreen, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("unscreen api key is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.unscreen.com/v1.0"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: unscreenDefaultTimeout}
	}
	return &Unscreen{apiKey: apiKey, base: base, client: client}, nil
}

func (u *Unscreen) Name() string { return "unscreen" }

func (u *Unscreen) Supports(jobType domain.JobType, op domain.Operation) bool {
	return unscreenOps.contains(jobType, op)
}

type unscreenVideo struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status    string `json:"status"`
			ResultURL string `json:"result_url"`
			Error     string `json:"error"`
		} `json:"attributes"`
	} `json:"data"`
}

func (u *Unscreen) Invoke(ctx context.Context, req Request) (*Result, error) {
	payload := map[string]any{"video_url": req.Config.VideoURL}
	if bg := req.Config.Background; bg != nil {
		payload["background_type"] = bg.Type
		if bg.Color != "" {
			payload["background_color"] = bg.Color
		}
	}

	video, err := u.do(ctx, http.MethodPost, u.base+"/videos", payload)
	if err != nil {
		return nil, fmt.Errorf("unscreen create: %w", err)
	}

	for video.Data.Attributes.Status != "done" {
		if video.Data.Attributes.Status == "error" {
			msg := video.Data.Attributes.Error
			if msg == "" {
				msg = "background removal failed"
			}
			return nil, fmt.Errorf("unscreen: %s", msg)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(unscreenPollInterval):
		}
		video, err = u.do(ctx, http.MethodGet, u.base+"/videos/"+video.Data.ID, nil)
		if err != nil {
			return nil, fmt.Errorf("unscreen poll: %w", err)
		}
	}

	if video.Data.Attributes.ResultURL == "" {
		return nil, errors.New("unscreen finished without a result url")
	}
	return &Result{
		SourceURL:       video.Data.Attributes.ResultURL,
		MIME:            "video/mp4",
		DurationSeconds: req.Config.DurationSeconds,
	}, nil
}

func (u *Unscreen) do(ctx context.Context, method, url string, payload map[string]any) (*unscreenVideo, error) {
	var body *bytes.Buffer
	if payload != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}
	var httpReq *http.Request
	var err error
	if body != nil {
		httpReq, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", u.apiKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	resp, err := u.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var video unscreenVideo
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &video, nil
}

var _ Adapter = (*Unscreen)(nil)
