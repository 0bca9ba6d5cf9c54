package providers

import (
	"context"

	"assetgen/internal/infra"
)

// Credentials carries the per-vendor configuration the registry needs.
type Credentials struct {
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	UnscreenAPIKey  string
	UnscreenBaseURL string
}

// CredentialsFromConfig extracts the vendor credentials from the service
// configuration.
func CredentialsFromConfig(cfg *infra.Config) Credentials {
	return Credentials{
		GeminiAPIKey:    cfg.GeminiAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		UnscreenAPIKey:  cfg.UnscreenAPIKey,
		UnscreenBaseURL: cfg.UnscreenBaseURL,
	}
}

// BuildRegistry wires every adapter whose credentials are configured. The
// dispatcher rejects submissions for providers that are absent here, so an
// unconfigured vendor degrades to a 400 rather than a runtime failure.
func BuildRegistry(ctx context.Context, creds Credentials, logger infra.Logger) *Registry {
	var adapters []Adapter

	if creds.GeminiAPIKey != "" {
		client, err := NewGoogleClient(ctx, creds.GeminiAPIKey)
		if err != nil {
			logger.Warn().Err(err).Msg("gemini client unavailable")
		} else {
			adapters = append(adapters,
				NewGemini(client),
				NewImagen(client),
				NewVeo(client),
			)
		}
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set, gemini/imagen/veo disabled")
	}

	if creds.OpenAIAPIKey != "" {
		opts := OpenAIOptions{APIKey: creds.OpenAIAPIKey, BaseURL: creds.OpenAIBaseURL}
		if openai, err := NewOpenAI(opts); err != nil {
			logger.Warn().Err(err).Msg("openai adapter unavailable")
		} else {
			adapters = append(adapters, openai)
		}
		if sora, err := NewSora(opts); err != nil {
			logger.Warn().Err(err).Msg("sora adapter unavailable")
		} else {
			adapters = append(adapters, sora)
		}
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, openai/sora disabled")
	}

	if creds.UnscreenAPIKey != "" {
		unscreen, err := NewUnscreen(UnscreenOptions{
			APIKey:  creds.UnscreenAPIKey,
			BaseURL: creds.UnscreenBaseURL,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("unscreen adapter unavailable")
		} else {
			adapters = append(adapters, unscreen)
		}
	} else {
		logger.Warn().Msg("UNSCREEN_API_KEY not set, unscreen disabled")
	}

	registry := NewRegistry(adapters...)
	logger.Info().Strs("providers", registry.Names()).Msg("provider registry ready")
	return registry
}
