package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"assetgen/internal/domain"
)

const (
	openAIDefaultTimeout      = 60 * time.Second
	openAIVideoPollInterval   = 10 * time.Second
	defaultOpenAIImageModel   = "gpt-image-1"
	defaultOpenAIVideoSeconds = 4
)

// OpenAIOptions controls how the OpenAI-backed adapters are configured.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAI covers gpt-image-1 image generation and sora-2 video generation via
// the OpenAI API.
type OpenAI struct {
	videos *openAIVideoClient
	apiKey string
	base   string
	client *http.Client
}

var openAIOps = opSet{
	domain.JobTypeImage: {domain.OpGenerate},
	domain.JobTypeVideo: {domain.OpGenerate},
}

// NewOpenAI builds the adapter; the API key is required.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	apiKey, base, client, err := openAISetup(opts)
	if err != nil {
		return nil, err
	}
	return &OpenAI{
		videos: &openAIVideoClient{apiKey: apiKey, base: base, client: client},
		apiKey: apiKey,
		base:   base,
		client: client,
	}, nil
}

func openAISetup(opts OpenAIOptions) (string, string, *http.Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return "", "", nil, errors.New("openai api key is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return apiKey, base, client, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Supports(jobType domain.JobType, op domain.Operation) bool {
	return openAIOps.contains(jobType, op)
}

func (o *OpenAI) Invoke(ctx context.Context, req Request) (*Result, error) {
	if req.JobType == domain.JobTypeVideo {
		return o.videos.generate(ctx, req)
	}
	return o.generateImage(ctx, req)
}

type openAIImageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n,omitempty"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

func (o *OpenAI) generateImage(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = defaultOpenAIImageModel
	}
	quantity := req.Config.Quantity
	if quantity < 1 {
		quantity = 1
	}
	payload := openAIImageRequest{
		Model:   model,
		Prompt:  req.Config.Prompt,
		N:       quantity,
		Size:    req.Config.Size,
		Quality: req.Config.Quality,
	}

	var out openAIImageResponse
	if err := postJSON(ctx, o.client, o.base+"/images/generations", o.apiKey, payload, &out); err != nil {
		return nil, fmt.Errorf("openai image generation: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, errors.New("openai returned no image data")
	}

	res := &Result{
		MIME:     "image/png",
		Quantity: quantity,
		Size:     req.Config.Size,
		Quality:  req.Config.Quality,
	}
	if out.Data[0].B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode openai image payload: %w", err)
		}
		res.Data = data
		return res, nil
	}
	if out.Data[0].URL == "" {
		return nil, errors.New("openai image response missing both b64 payload and url")
	}
	res.SourceURL = out.Data[0].URL
	return res, nil
}

// openAIVideoClient drives the OpenAI videos API (sora-2). Shared by the
// openai and sora adapters, which differ only in registry name and pricing.
type openAIVideoClient struct {
	apiKey string
	base   string
	client *http.Client
}

type openAIVideoCreateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Seconds string `json:"seconds,omitempty"`
	Size    string `json:"size,omitempty"`
}

type openAIVideoStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openAIVideoClient) generate(ctx context.Context, req Request) (*Result, error) {
	seconds := req.Config.DurationSeconds
	if seconds < 1 {
		seconds = defaultOpenAIVideoSeconds
	}
	create := openAIVideoCreateRequest{
		Model:   req.Model,
		Prompt:  req.Config.Prompt,
		Seconds: strconv.Itoa(seconds),
		Size:    req.Config.Resolution,
	}

	var status openAIVideoStatus
	if err := postJSON(ctx, c.client, c.base+"/videos", c.apiKey, create, &status); err != nil {
		return nil, fmt.Errorf("sora create video: %w", err)
	}

	for status.Status != "completed" {
		if status.Status == "failed" {
			msg := "video generation failed"
			if status.Error != nil && status.Error.Message != "" {
				msg = status.Error.Message
			}
			return nil, fmt.Errorf("sora: %s", msg)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(openAIVideoPollInterval):
		}
		if err := getJSON(ctx, c.client, c.base+"/videos/"+status.ID, c.apiKey, &status); err != nil {
			return nil, fmt.Errorf("sora poll video: %w", err)
		}
	}

	data, err := getBytes(ctx, c.client, c.base+"/videos/"+status.ID+"/content", c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("sora download video: %w", err)
	}
	return &Result{
		Data:            data,
		MIME:            "video/mp4",
		DurationSeconds: seconds,
		Resolution:      req.Config.Resolution,
	}, nil
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, in, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(ctx context.Context, client *http.Client, url, apiKey string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getBytes(ctx context.Context, client *http.Client, url, apiKey string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return readAllLimited(resp.Body)
}

var _ Adapter = (*OpenAI)(nil)
