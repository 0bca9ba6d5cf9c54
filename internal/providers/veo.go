package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"assetgen/internal/domain"
)

const veoPollInterval = 10 * time.Second

// Veo generates videos from text or a still image through the Veo models of
// the Gemini API. Veo runs as a long-running operation; Invoke polls until
// the operation settles or the context expires.
type Veo struct {
	client *genai.Client
	http   *http.Client
}

var veoOps = opSet{
	domain.JobTypeVideo: {domain.OpGenerate, domain.OpFromImage},
}

// NewVeo wraps an existing genai client.
func NewVeo(client *genai.Client) *Veo {
	return &Veo{
		client: client,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (v *Veo) Name() string { return "veo" }

func (v *Veo) Supports(jobType domain.JobType, op domain.Operation) bool {
	return veoOps.contains(jobType, op)
}

func (v *Veo) Invoke(ctx context.Context, req Request) (*Result, error) {
	var image *genai.Image
	if req.Operation == domain.OpFromImage {
		data, mime, err := fetchBytes(ctx, v.http, req.Config.ImageURL)
		if err != nil {
			return nil, err
		}
		image = &genai.Image{ImageBytes: data, MIMEType: mime}
	}

	op, err := v.client.Models.GenerateVideos(ctx, req.Model, req.Config.Prompt, image, &genai.GenerateVideosConfig{
		AspectRatio: req.Config.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("veo generate videos: %w", err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(veoPollInterval):
		}
		op, err = v.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, fmt.Errorf("veo poll operation: %w", err)
		}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, fmt.Errorf("veo returned no video for model %s", req.Model)
	}

	vid := op.Response.GeneratedVideos[0].Video
	duration := req.Config.DurationSeconds
	if duration < 1 {
		duration = 8
	}
	res := &Result{
		MIME:            "video/mp4",
		DurationSeconds: duration,
		Resolution:      req.Config.Resolution,
	}
	if len(vid.VideoBytes) > 0 {
		res.Data = vid.VideoBytes
	} else {
		res.SourceURL = vid.URI
	}
	return res, nil
}

var _ Adapter = (*Veo)(nil)
