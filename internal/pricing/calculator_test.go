package pricing

import (
	"math"
	"testing"

	"assetgen/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestImageCost(t *testing.T) {
	cases := []struct {
		name     string
		provider string
		model    string
		quantity int
		size     string
		quality  string
		want     float64
	}{
		{"gemini flash image", "gemini", "gemini-2.5-flash-image", 2, "", "", 0.078},
		{"imagen fast", "imagen", "imagen-4.0-fast-generate-001", 3, "", "", 0.06},
		{"openai medium square", "openai", "gpt-image-1", 1, "1024x1024", "medium", 0.042},
		{"openai high portrait", "openai", "gpt-image-1", 2, "1024x1536", "high", 0.5},
		{"openai defaults when unset", "openai", "gpt-image-1", 1, "", "", 0.042},
		{"unknown provider prices zero", "stability", "sdxl", 4, "", "", 0},
		{"quantity floor of one", "imagen", "imagen-4.0-fast-generate-001", 0, "", "", 0.02},
	}
	for _, tc := range cases {
		got := ImageCost(tc.provider, tc.model, tc.quantity, tc.size, tc.quality)
		if !almostEqual(got, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestVideoCost(t *testing.T) {
	if got := VideoCost("veo", "veo-3.1-standard", 10, ""); !almostEqual(got, 4.0) {
		t.Fatalf("veo standard: got %v", got)
	}
	if got := VideoCost("veo", "veo-3.1-fast", 10, ""); !almostEqual(got, 1.5) {
		t.Fatalf("veo fast: got %v", got)
	}
	if got := VideoCost("sora", "sora-2", 8, "720x1280"); !almostEqual(got, 0.8) {
		t.Fatalf("sora standard: got %v", got)
	}
	if got := VideoCost("sora", "sora-2", 8, "1024x1792"); !almostEqual(got, 4.0) {
		t.Fatalf("sora pro: got %v", got)
	}
	if got := VideoCost("unscreen", "unscreen-1.0", 8, ""); got != 0 {
		t.Fatalf("unscreen should price zero, got %v", got)
	}
}

func TestEstimateDispatchesByJobType(t *testing.T) {
	img := Estimate("gemini", "gemini-2.5-flash-image", domain.JobTypeImage, Inputs{Quantity: 1})
	if !almostEqual(img, 0.039) {
		t.Fatalf("image estimate: got %v", img)
	}
	vid := Estimate("veo", "veo-3.1-fast", domain.JobTypeVideo, Inputs{DurationSeconds: 4})
	if !almostEqual(vid, 0.6) {
		t.Fatalf("video estimate: got %v", vid)
	}
}

func TestRecommendProvider(t *testing.T) {
	if got := RecommendProvider(domain.JobTypeImage, "cost"); got != "imagen" {
		t.Fatalf("image cost: got %q", got)
	}
	if got := RecommendProvider(domain.JobTypeImage, "quality"); got != "openai" {
		t.Fatalf("image quality: got %q", got)
	}
	if got := RecommendProvider(domain.JobTypeImage, "balanced"); got != "gemini" {
		t.Fatalf("image balanced: got %q", got)
	}
	if got := RecommendProvider(domain.JobTypeVideo, "balanced"); got != "veo" {
		t.Fatalf("video balanced: got %q", got)
	}
}
