// Package pricing maps (provider, model, configuration) to a monetary cost.
// Every function is pure; the tables mirror published vendor list prices in
// USD. Unknown (provider, model) pairs price at zero rather than erroring so
// a terminal transition can always carry a cost.
package pricing

import "assetgen/internal/domain"

// Per-image prices.
var imagePerUnit = map[string]map[string]float64{
	"gemini": {
		"gemini-2.5-flash-image": 0.039,
	},
	"imagen": {
		"imagen-4.0-fast-generate-001": 0.02,
	},
}

type sizeQuality struct {
	size    string
	quality string
}

// OpenAI gpt-image-1 prices keyed by (size, quality).
var openAIImage = map[sizeQuality]float64{
	{"1024x1024", "medium"}: 0.042,
	{"1024x1024", "high"}:   0.167,
	{"1024x1536", "medium"}: 0.063,
	{"1024x1536", "high"}:   0.250,
	{"1536x1024", "medium"}: 0.063,
	{"1536x1024", "high"}:   0.250,
}

const defaultOpenAIImagePrice = 0.042

// Per-second video prices.
const (
	veoStandardPerSecond = 0.40
	veoFastPerSecond     = 0.15
	soraPerSecond        = 0.10
	soraProPerSecond     = 0.50
)

// Inputs carries the raw cost inputs reported back by a provider adapter.
type Inputs struct {
	Quantity        int
	DurationSeconds int
	Size            string
	Quality         string
	Resolution      string
}

// ImageCost prices an image generation.
func ImageCost(provider, model string, quantity int, size, quality string) float64 {
	if quantity < 1 {
		quantity = 1
	}
	switch provider {
	case "openai":
		if size == "" {
			size = "1024x1024"
		}
		if quality == "" {
			quality = "medium"
		}
		price, ok := openAIImage[sizeQuality{size, quality}]
		if !ok {
			price = defaultOpenAIImagePrice
		}
		return float64(quantity) * price
	default:
		if models, ok := imagePerUnit[provider]; ok {
			if price, ok := models[model]; ok {
				return float64(quantity) * price
			}
		}
	}
	return 0
}

// VideoCost prices a video generation by duration.
func VideoCost(provider, model string, seconds int, resolution string) float64 {
	if seconds < 1 {
		seconds = 1
	}
	switch provider {
	case "veo":
		perSecond := veoFastPerSecond
		if model == "veo-3.1-standard" {
			perSecond = veoStandardPerSecond
		}
		return float64(seconds) * perSecond
	case "sora", "openai":
		perSecond := soraPerSecond
		if resolution == "1024x1792" || resolution == "1792x1024" {
			perSecond = soraProPerSecond
		}
		return float64(seconds) * perSecond
	}
	return 0
}

// Estimate prices a finished job from the adapter's reported inputs.
func Estimate(provider, model string, jobType domain.JobType, in Inputs) float64 {
	switch jobType {
	case domain.JobTypeImage:
		return ImageCost(provider, model, in.Quantity, in.Size, in.Quality)
	case domain.JobTypeVideo:
		return VideoCost(provider, model, in.DurationSeconds, in.Resolution)
	}
	return 0
}

// RecommendProvider suggests a provider for the given resource type and
// priority ("cost", "quality" or "balanced").
func RecommendProvider(resourceType domain.JobType, priority string) string {
	switch resourceType {
	case domain.JobTypeImage:
		switch priority {
		case "cost":
			return "imagen"
		case "quality":
			return "openai"
		default:
			return "gemini"
		}
	case domain.JobTypeVideo:
		switch priority {
		case "cost", "quality":
			return "sora"
		default:
			return "veo"
		}
	}
	return "gemini"
}
