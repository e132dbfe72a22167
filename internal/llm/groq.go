package llm

import "context"

type groqProvider struct {
	base openAICompatClient
}

// NewGroq creates a provider for Groq's OpenAI-compatible API.
func NewGroq(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai"
	}
	return &groqProvider{base: newOpenAICompatClient(cfg, "groq")}
}

func (p *groqProvider) Complete(ctx context.Context, req Request) (string, error) {
	return p.base.complete(ctx, req)
}

func (p *groqProvider) Name() string { return p.base.name }
