package llm

import "context"

type openAIProvider struct {
	base openAICompatClient
}

// NewOpenAI creates a provider for the OpenAI API.
func NewOpenAI(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	return &openAIProvider{base: newOpenAICompatClient(cfg, "openai")}
}

func (p *openAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	return p.base.complete(ctx, req)
}

func (p *openAIProvider) Name() string { return p.base.name }
