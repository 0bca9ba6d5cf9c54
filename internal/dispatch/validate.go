package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"assetgen/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Per-operation views of the config payload. Each struct names only the
// fields the operation requires; everything else in the payload passes
// through untouched to the provider adapter.
type generateImageConfig struct {
	Prompt      string `json:"prompt" validate:"required,min=3"`
	Quantity    int    `json:"quantity" validate:"omitempty,min=1,max=4"`
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=1:1 16:9 9:16 4:3 3:4"`
	Quality     string `json:"quality" validate:"omitempty,oneof=low medium high standard hd"`
}

type editImageConfig struct {
	Prompt   string `json:"prompt" validate:"required,min=3"`
	ImageURL string `json:"image_url" validate:"required,url"`
}

type generateVideoConfig struct {
	Prompt          string `json:"prompt" validate:"required,min=10"`
	DurationSeconds int    `json:"duration_seconds" validate:"omitempty,min=1,max=60"`
	Resolution      string `json:"resolution" validate:"omitempty"`
}

type videoFromImageConfig struct {
	Prompt          string `json:"prompt" validate:"omitempty,min=10"`
	ImageURL        string `json:"image_url" validate:"required,url"`
	DurationSeconds int    `json:"duration_seconds" validate:"omitempty,min=1,max=60"`
}

type removeBackgroundConfig struct {
	VideoURL   string         `json:"video_url" validate:"required,url"`
	Background *backgroundCfg `json:"output_background" validate:"omitempty"`
}

type backgroundCfg struct {
	Type  string `json:"type" validate:"required,oneof=transparent color"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// validateConfig checks the submission payload against the rules of the
// requested (type, operation) pair. Failures come back as *domain.ConfigError
// carrying the offending field names.
func validateConfig(jobType domain.JobType, op domain.Operation, raw []byte) error {
	target, err := configTarget(jobType, op)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, target); err != nil {
			return &domain.ConfigError{Fields: []string{"config"}}
		}
	}
	if err := validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		fields := []string{"config"}
		if errors.As(err, &verrs) {
			fields = fieldNames(verrs)
		}
		return &domain.ConfigError{Fields: fields}
	}
	return nil
}

func configTarget(jobType domain.JobType, op domain.Operation) (any, error) {
	switch jobType {
	case domain.JobTypeImage:
		switch op {
		case domain.OpGenerate, domain.OpPrototype:
			return &generateImageConfig{}, nil
		case domain.OpEdit:
			return &editImageConfig{}, nil
		}
	case domain.JobTypeVideo:
		switch op {
		case domain.OpGenerate:
			return &generateVideoConfig{}, nil
		case domain.OpFromImage:
			return &videoFromImageConfig{}, nil
		case domain.OpRemoveBackground:
			return &removeBackgroundConfig{}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s", domain.ErrUnsupportedOperation, jobType, op)
}

func fieldNames(verrs validator.ValidationErrors) []string {
	seen := make(map[string]bool, len(verrs))
	var fields []string
	for _, fe := range verrs {
		name := jsonFieldName(fe)
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	return fields
}

// jsonFieldName maps a validator field back to its wire name.
func jsonFieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Prompt":
		return "prompt"
	case "Quantity":
		return "quantity"
	case "AspectRatio":
		return "aspect_ratio"
	case "Quality":
		return "quality"
	case "ImageURL":
		return "image_url"
	case "VideoURL":
		return "video_url"
	case "DurationSeconds":
		return "duration_seconds"
	case "Resolution":
		return "resolution"
	case "Type":
		return "output_background.type"
	case "Color":
		return "output_background.color"
	}
	return strings.ToLower(fe.Field())
}
