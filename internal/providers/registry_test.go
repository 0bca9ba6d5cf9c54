package providers

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"assetgen/internal/domain"
)

type stubAdapter struct {
	name string
	ops  opSet
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Supports(jobType domain.JobType, op domain.Operation) bool {
	return s.ops.contains(jobType, op)
}

func (s *stubAdapter) Invoke(ctx context.Context, req Request) (*Result, error) {
	return &Result{Data: []byte("stub"), MIME: "image/png", Quantity: 1}, nil
}

func TestRegistrySupports(t *testing.T) {
	reg := NewRegistry(
		&stubAdapter{name: "gemini", ops: opSet{domain.JobTypeImage: {domain.OpGenerate, domain.OpEdit}}},
		&stubAdapter{name: "unscreen", ops: opSet{domain.JobTypeVideo: {domain.OpRemoveBackground}}},
	)

	if !reg.Supports("gemini", domain.JobTypeImage, domain.OpGenerate) {
		t.Fatal("gemini should support image generate")
	}
	if reg.Supports("gemini", domain.JobTypeVideo, domain.OpRemoveBackground) {
		t.Fatal("gemini must not support video remove_background")
	}
	if !reg.Supports("unscreen", domain.JobTypeVideo, domain.OpRemoveBackground) {
		t.Fatal("unscreen should support video remove_background")
	}
	if reg.Supports("unknown", domain.JobTypeImage, domain.OpGenerate) {
		t.Fatal("unknown providers support nothing")
	}
}

func TestBuildRegistryWithoutCredentials(t *testing.T) {
	reg := BuildRegistry(context.Background(), Credentials{}, zerolog.Nop())
	if names := reg.Names(); len(names) != 0 {
		t.Fatalf("expected empty registry without credentials, got %v", names)
	}
	if reg.Supports("gemini", domain.JobTypeImage, domain.OpGenerate) {
		t.Fatal("unconfigured provider must not report support")
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"prompt":"a red barn at sunset","aspect_ratio":"16:9","quantity":2}`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Prompt != "a red barn at sunset" || cfg.AspectRatio != "16:9" || cfg.Quantity != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := ParseConfig([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed config")
	}

	empty, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig(nil): %v", err)
	}
	if empty.Prompt != "" {
		t.Fatalf("expected zero config, got %+v", empty)
	}
}
