package greentext

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/diary/internal/config"
	"github.com/edgard/diary/internal/resilience"
)

// NewGenerator builds the generator selected by cfg.Provider, wrapped in a
// circuit breaker unless cfg.BreakerFailures is zero. It returns nil, nil
// when no API key is configured, which leaves the Transformer on its
// fallback path.
func NewGenerator(ctx context.Context, cfg config.GreentextConfig, log *slog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		log.Warn("No greentext API key configured, using fallback transform only", "provider", cfg.Provider)
		return nil, nil
	}

	var gen Generator
	switch cfg.Provider {
	case "openrouter", "openai":
		g, err := NewOpenAIGenerator(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Referer:     cfg.Referer,
			Title:       cfg.Title,
		}, log)
		if err != nil {
			return nil, err
		}
		gen = g
	case "gemini":
		// The default base URL points at OpenRouter, not Gemini.
		baseURL := cfg.BaseURL
		if baseURL == config.DefaultGreentextBaseURL {
			baseURL = ""
		}
		g, err := NewGeminiGenerator(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     baseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, log)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("unsupported greentext provider %q", cfg.Provider)
	}

	if cfg.BreakerFailures == 0 {
		return gen, nil
	}
	return NewBreakerGenerator(gen, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "greentext_" + cfg.Provider,
		MaxFailures: cfg.BreakerFailures,
		Cooldown:    cfg.BreakerCooldown,
		Logger:      log,
	})), nil
}
