package greentext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	apperrors "github.com/edgard/diary/internal/errors"
)

// GeminiConfig configures the Gemini generator. An empty
// BaseURL uses the SDK default endpoint.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// GeminiGenerator produces greentext with Google's Gemini API.
type GeminiGenerator struct {
	client        *genai.Client
	model         string
	contentConfig *genai.GenerateContentConfig
	log           *slog.Logger
}

// NewGeminiGenerator creates a Gemini client for the configured model.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, log *slog.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	logger := log.With("component", "gemini_generator")
	logger.Info("Gemini generator initialized", "model", cfg.Model)

	return &GeminiGenerator{
		client: client,
		model:  cfg.Model,
		contentConfig: &genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: int32(cfg.MaxTokens), //nolint:gosec // bounded by config validation
		},
		log: logger,
	}, nil
}

// Generate makes one GenerateContent call.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.contentConfig)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", apperrors.NewAPIError(fmt.Sprintf("gemini returned status %d", apiErr.Code), apiErr.Code, err)
		}
		return "", apperrors.NewAPIError("gemini request failed", 0, err)
	}

	if blocked(resp) {
		g.log.WarnContext(ctx, "Gemini request blocked", "reason", resp.PromptFeedback.BlockReason)
		return "", apperrors.NewAPIError(fmt.Sprintf("gemini blocked the prompt: %v", resp.PromptFeedback.BlockReason), 0, nil)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.NewAPIError("gemini returned no candidates", 0, nil)
	}

	return resp.Text(), nil
}

func blocked(resp *genai.GenerateContentResponse) bool {
	if resp.PromptFeedback == nil {
		return false
	}
	reason := resp.PromptFeedback.BlockReason
	return reason != "" && reason != genai.BlockedReasonUnspecified
}
