package providers

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"assetgen/internal/domain"
)

// Imagen generates images through the Imagen models of the Gemini API.
type Imagen struct {
	client *genai.Client
}

var imagenOps = opSet{
	domain.JobTypeImage: {domain.OpGenerate},
}

// NewImagen wraps an existing genai client.
func NewImagen(client *genai.Client) *Imagen {
	return &Imagen{client: client}
}

func (i *Imagen) Name() string { return "imagen" }

func (i *Imagen) Supports(jobType domain.JobType, op domain.Operation) bool {
	return imagenOps.contains(jobType, op)
}

func (i *Imagen) Invoke(ctx context.Context, req Request) (*Result, error) {
	quantity := req.Config.Quantity
	if quantity < 1 {
		quantity = 1
	}

	resp, err := i.client.Models.GenerateImages(ctx, req.Model, req.Config.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(quantity),
		AspectRatio:    req.Config.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("imagen generate images: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("imagen returned no images for model %s", req.Model)
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &Result{
		Data:     img.ImageBytes,
		MIME:     mime,
		Quantity: len(resp.GeneratedImages),
	}, nil
}

var _ Adapter = (*Imagen)(nil)
