package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trendpress/internal/config"

	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-2.5-flash"
	// DefaultMaxTokens bounds the length of a generated document.
	DefaultMaxTokens = int32(8192)
)

// ErrEmptyResponse means the model answered without any text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Client represents a client for the Gemini text-generation API.
type Client struct {
	modelName   string
	maxTokens   int32
	temperature float32
	timeout     time.Duration
	gClient     *genai.Client
}

// TextGenerationOptions overrides the client defaults for one call.
type TextGenerationOptions struct {
	MaxTokens   int32   // Maximum number of tokens to generate
	Temperature float32 // Temperature for randomness (0.0 to 2.0)
	Model       string  // Model to use (optional, defaults to client's model)
}

// NewClient creates a Gemini client from the gemini configuration section.
func NewClient(cfg config.Gemini) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or gemini.api_key in config file", config.ErrMissingAPIKey)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	gClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.TimeoutDuration(),
		gClient:     gClient,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}

// GenerateText sends one prompt and returns the model's text using the
// configured defaults.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.GenerateTextWithOptions(ctx, prompt, TextGenerationOptions{})
}

// GenerateTextWithOptions sends one prompt with per-call overrides.
func (c *Client) GenerateTextWithOptions(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	genConfig := buildConfig(c.maxTokens, c.temperature, options)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func buildConfig(maxTokens int32, temperature float32, options TextGenerationOptions) *genai.GenerateContentConfig {
	if options.MaxTokens > 0 {
		maxTokens = options.MaxTokens
	}
	if options.Temperature > 0 {
		temperature = options.Temperature
	}

	genConfig := &genai.GenerateContentConfig{MaxOutputTokens: maxTokens}
	if temperature > 0 {
		genConfig.Temperature = genai.Ptr(temperature)
	}
	return genConfig
}
