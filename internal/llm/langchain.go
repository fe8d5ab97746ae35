package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LangChainOracle drives any langchaingo model. Gemini and Ollama are built
// through it.
type LangChainOracle struct {
	name        string
	model       llms.Model
	temperature float64
	maxTokens   int
}

func NewLangChainOracle(name string, model llms.Model, temperature float32, maxTokens int) *LangChainOracle {
	return &LangChainOracle{
		name:        name,
		model:       model,
		temperature: float64(temperature),
		maxTokens:   maxTokens,
	}
}

func NewGeminiOracle(ctx context.Context, cfg ClientConfig) (*LangChainOracle, error) {
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewLangChainOracle("gemini", model, cfg.Temperature, cfg.MaxTokens), nil
}

func NewOllamaOracle(cfg ClientConfig) (*LangChainOracle, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	model, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewLangChainOracle("ollama", model, cfg.Temperature, cfg.MaxTokens), nil
}

func (o *LangChainOracle) Name() string { return o.name }

func (o *LangChainOracle) Generate(ctx context.Context, prompt string) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(o.temperature)}
	if o.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(o.maxTokens))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, o.model, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("%s generation failed: %w", o.name, err)
	}
	return text, nil
}
