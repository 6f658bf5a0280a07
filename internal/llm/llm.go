// Package llm builds the language model used for document summaries.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dharsanguruparan/RagDrop/internal/config"
)

// NewSummarizer returns the model selected by SUMMARY_PROVIDER.
func NewSummarizer(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	switch cfg.SummaryProvider {
	case config.ProviderGoogleAI, "":
		m, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel(cfg.SummaryModel),
		)
		if err != nil {
			return nil, fmt.Errorf("init googleai: %w", err)
		}
		return m, nil
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(cfg.SummaryModel)}
		token := cfg.OpenAIAPIKey
		if token == "" {
			// local OpenAI-compatible servers accept any token
			token = "none"
		}
		opts = append(opts, openai.WithToken(token))
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("init openai: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.SummaryProvider)
	}
}
