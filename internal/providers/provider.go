// Package providers holds the uniform adapters over external AI vendors.
// Adapters know nothing about jobs or persistence: they translate a parsed
// config into one vendor call and hand back bytes or a source URL plus the
// raw cost inputs.
package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"assetgen/internal/domain"
)

// Config is the parsed view of a job's opaque input payload. Only the fields
// relevant to the invoked operation are expected to be set; the dispatcher
// has already validated the required ones.
type Config struct {
	Prompt          string          `json:"prompt"`
	Style           string          `json:"style"`
	AspectRatio     string          `json:"aspect_ratio"`
	Quantity        int             `json:"quantity"`
	Size            string          `json:"size"`
	Quality         string          `json:"quality"`
	DurationSeconds int             `json:"duration_seconds"`
	Resolution      string          `json:"resolution"`
	ImageURL        string          `json:"image_url"`
	VideoURL        string          `json:"video_url"`
	Background      *BackgroundSpec `json:"output_background,omitempty"`
}

// BackgroundSpec configures background replacement for remove_background.
type BackgroundSpec struct {
	Type  string `json:"type"` // transparent|color
	Color string `json:"color,omitempty"`
}

// ParseConfig decodes a job's stored config payload.
func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decode job config: %w", err)
	}
	return cfg, nil
}

// Request is one adapter invocation.
type Request struct {
	JobID     string
	JobType   domain.JobType
	Operation domain.Operation
	Model     string
	Config    Config
}

// Result is the normalized outcome of a successful invocation. Either Data
// holds the output bytes (the executor persists them to object storage) or
// SourceURL points at a vendor-hosted artifact. The remaining fields are the
// raw cost inputs for the pricing tables.
type Result struct {
	Data      []byte
	SourceURL string
	MIME      string

	Quantity        int
	DurationSeconds int
	Size            string
	Quality         string
	Resolution      string
}

// Adapter is the uniform contract a vendor integration fulfils.
type Adapter interface {
	Name() string
	Supports(jobType domain.JobType, op domain.Operation) bool
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// opSet is a small helper for declaring an adapter's support matrix.
type opSet map[domain.JobType][]domain.Operation

func (s opSet) contains(jobType domain.JobType, op domain.Operation) bool {
	for _, o := range s[jobType] {
		if o == op {
			return true
		}
	}
	return false
}
