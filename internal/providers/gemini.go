package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"assetgen/internal/domain"
)

// Gemini generates and edits images through the Gemini API's image-output
// models (gemini-2.5-flash-image).
type Gemini struct {
	client *genai.Client
	http   *http.Client
}

var geminiOps = opSet{
	domain.JobTypeImage: {domain.OpGenerate, domain.OpEdit, domain.OpPrototype},
}

// NewGemini wraps an existing genai client.
func NewGemini(client *genai.Client) *Gemini {
	return &Gemini{
		client: client,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Supports(jobType domain.JobType, op domain.Operation) bool {
	return geminiOps.contains(jobType, op)
}

func (g *Gemini) Invoke(ctx context.Context, req Request) (*Result, error) {
	parts := []*genai.Part{genai.NewPartFromText(buildImageInstruction(req))}

	// Edits and prototypes work from a reference image, passed inline.
	if req.Config.ImageURL != "" {
		data, mime, err := fetchBytes(ctx, g.http, req.Config.ImageURL)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}

	quantity := req.Config.Quantity
	if quantity < 1 {
		quantity = 1
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, []*genai.Content{
		{Role: "user", Parts: parts},
	}, &genai.GenerateContentConfig{
		CandidateCount: int32(quantity),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return &Result{
				Data:     part.InlineData.Data,
				MIME:     mime,
				Quantity: quantity,
			}, nil
		}
	}
	return nil, fmt.Errorf("gemini returned no image data for model %s", req.Model)
}

func buildImageInstruction(req Request) string {
	var b strings.Builder
	switch req.Operation {
	case domain.OpEdit:
		b.WriteString("Edit the attached image: ")
	case domain.OpPrototype:
		b.WriteString("Create a rough prototype render: ")
	}
	b.WriteString(req.Config.Prompt)
	if req.Config.Style != "" {
		b.WriteString(". Visual style: ")
		b.WriteString(req.Config.Style)
	}
	if req.Config.AspectRatio != "" {
		b.WriteString(". Aspect ratio ")
		b.WriteString(req.Config.AspectRatio)
	}
	return b.String()
}

var _ Adapter = (*Gemini)(nil)
