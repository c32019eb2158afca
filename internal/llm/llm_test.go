package llm

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"trendpress/internal/config"
)

func TestNewClient_NoAPIKey(t *testing.T) {
	_, err := NewClient(config.Gemini{Model: "gemini-2.5-flash"})
	if err == nil {
		t.Fatal("Expected error when no API key is available")
	}
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got: %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(config.Gemini{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != DefaultModel {
		t.Errorf("Expected default model %q, got %q", DefaultModel, client.Model())
	}
	if client.maxTokens != DefaultMaxTokens {
		t.Errorf("Expected default max tokens %d, got %d", DefaultMaxTokens, client.maxTokens)
	}
}

func TestGenerateText_EmptyPrompt(t *testing.T) {
	client, err := NewClient(config.Gemini{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.GenerateText(context.Background(), "   ")
	if err == nil || !strings.Contains(err.Error(), "prompt cannot be empty") {
		t.Errorf("Expected empty prompt error, got %v", err)
	}
}

func TestBuildConfig(t *testing.T) {
	cfg := buildConfig(4096, 0.8, TextGenerationOptions{})
	if cfg.MaxOutputTokens != 4096 {
		t.Errorf("Expected 4096 max tokens, got %d", cfg.MaxOutputTokens)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.8 {
		t.Errorf("Expected temperature 0.8, got %v", cfg.Temperature)
	}

	cfg = buildConfig(4096, 0, TextGenerationOptions{MaxTokens: 100})
	if cfg.MaxOutputTokens != 100 {
		t.Errorf("Expected override of 100 tokens, got %d", cfg.MaxOutputTokens)
	}
	if cfg.Temperature != nil {
		t.Errorf("Expected unset temperature, got %v", *cfg.Temperature)
	}
}

func TestGenerateText_Integration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	client, err := NewClient(config.Gemini{APIKey: apiKey, MaxTokens: 64, Timeout: "30s"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	text, err := client.GenerateText(context.Background(), "Reply with the single word: ok")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if strings.TrimSpace(text) == "" {
		t.Error("Expected non-empty response")
	}
}
