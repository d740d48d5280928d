// Package ai holds the LLM layer: motivational analysis, the conversational
// task-creation assistant and the productivity chatbot. All three speak to an
// OpenAI-compatible endpoint through langchaingo, the provider does the model
// reasoning, this package only builds prompts and resolves tool calls.
package ai

import (
	"errors"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config holds provider settings for the assistant.
type Config struct {
	// BaseURL of the OpenAI-compatible API
	BaseURL string
	// Model name, e.g. gpt-4o-mini
	Model string
	// APIKey for the provider
	APIKey string
}

// NewModel builds the langchaingo client for the configured provider.
func NewModel(cfg Config) (llms.Model, error) {
	if cfg.Model == "" || cfg.APIKey == "" {
		return nil, errors.New("ai model and api key are required")
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, errors.New("creating llm client error: " + err.Error())
	}
	return llm, nil
}
