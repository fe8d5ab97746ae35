package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/floatchat/backend/pkg/config"
	"github.com/floatchat/backend/pkg/logger"
)

// New builds the configured oracle with the configured per-call timeout.
// Provider "none", or a hosted provider without a key, yields Disabled so
// the pipeline runs on rules and templates alone.
func New(ctx context.Context, cfg config.LLMConfig) (Oracle, error) {
	clientCfg := ClientConfig{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
	}

	if cfg.Provider != "none" && cfg.Provider != "ollama" && cfg.APIKey == "" {
		logger.Warn("LLM API key missing, oracle disabled", zap.String("provider", cfg.Provider))
		return Disabled(), nil
	}

	var (
		oracle Oracle
		err    error
	)
	switch cfg.Provider {
	case "none":
		return Disabled(), nil
	case "openai":
		oracle = NewClient(clientCfg)
	case "anthropic":
		oracle = NewAnthropicClient(clientCfg)
	case "gemini":
		oracle, err = NewGeminiOracle(ctx, clientCfg)
	case "ollama":
		oracle, err = NewOllamaOracle(clientCfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("LLM oracle initialized",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout()),
	)

	return WithTimeout(oracle, cfg.Timeout()), nil
}

// NewEmbedder returns an OpenAI client for embeddings, or nil when no key is
// available.
func NewEmbedder(cfg config.LLMConfig) *Client {
	key := cfg.EmbeddingKey
	baseURL := ""
	if cfg.Provider == "openai" {
		if key == "" {
			key = cfg.APIKey
		}
		baseURL = cfg.BaseURL
	}
	if key == "" {
		return nil
	}
	return NewClient(ClientConfig{APIKey: key, BaseURL: baseURL, EmbeddingModel: cfg.EmbeddingModel})
}
