package providers

import (
	"context"

	"assetgen/internal/domain"
)

// Sora exposes sora-2 video generation as its own provider name. It shares
// the OpenAI videos API client; only registry identity and pricing differ.
type Sora struct {
	videos *openAIVideoClient
}

var soraOps = opSet{
	domain.JobTypeVideo: {domain.OpGenerate, domain.OpFromImage},
}

// NewSora builds the adapter; the API key is required.
func NewSora(opts OpenAIOptions) (*Sora, error) {
	apiKey, base, client, err := openAISetup(opts)
	if err != nil {
		return nil, err
	}
	return &Sora{videos: &openAIVideoClient{apiKey: apiKey, base: base, client: client}}, nil
}

func (s *Sora) Name() string { return "sora" }

func (s *Sora) Supports(jobType domain.JobType, op domain.Operation) bool {
	return soraOps.contains(jobType, op)
}

func (s *Sora) Invoke(ctx context.Context, req Request) (*Result, error) {
	return s.videos.generate(ctx, req)
}

var _ Adapter = (*Sora)(nil)
