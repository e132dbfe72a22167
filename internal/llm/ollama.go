package llm

import "context"

// ollamaProvider uses Ollama's OpenAI-compatible endpoint, which is enough
// for plain text completions. No API key required for local use.
type ollamaProvider struct {
	base openAICompatClient
}

// NewOllama creates a provider for a local Ollama instance.
func NewOllama(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	return &ollamaProvider{base: newOpenAICompatClient(cfg, "ollama")}
}

func (p *ollamaProvider) Complete(ctx context.Context, req Request) (string, error) {
	return p.base.complete(ctx, req)
}

func (p *ollamaProvider) Name() string { return p.base.name }
