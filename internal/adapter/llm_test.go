package adapter

import (
	"context"
	"errors"
	"testing"
)

func TestValidateLoopbackURL_AcceptsLoopback(t *testing.T) {
	for _, raw := range []string{
		"http://127.0.0.1:11434",
		"http://localhost:11434",
		"http://[::1]:11434",
	} {
		if err := ValidateLoopbackURL(raw); err != nil {
			t.Fatalf("ValidateLoopbackURL(%q) = %v, want nil", raw, err)
		}
	}
}

func TestValidateLoopbackURL_RejectsNonLoopback(t *testing.T) {
	for _, raw := range []string{
		"http://10.0.0.5:11434",
		"http://192.168.1.20:11434",
		"http://example.com:11434",
		"http://ollama.internal:11434",
	} {
		err := ValidateLoopbackURL(raw)
		if !errors.Is(err, ErrNotAvailable) {
			t.Fatalf("ValidateLoopbackURL(%q) = %v, want ErrNotAvailable", raw, err)
		}
	}
}

func TestGenerate_RejectsUnlistedModel(t *testing.T) {
	client, err := NewOllamaClient()
	if err != nil {
		t.Fatalf("NewOllamaClient error: %v", err)
	}

	_, err = client.Generate(context.Background(), "unlisted-model:latest", "hello")
	if !errors.Is(err, ErrModelNotAllowed) {
		t.Fatalf("Generate with unlisted model: err = %v, want ErrModelNotAllowed", err)
	}
}
