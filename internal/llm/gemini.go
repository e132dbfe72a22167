package llm

import "context"

// geminiProvider reaches Google's Gemini API through its OpenAI-compatible
// endpoint. Gemini uses a different path layout than standard OpenAI
// providers (no /v1 prefix).
//
// Chat models: gemini-2.5-pro (highest capability), gemini-2.5-flash (fast).
type geminiProvider struct {
	base openAICompatClient
}

// NewGemini creates a provider for Google Gemini.
func NewGemini(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	return &geminiProvider{base: newOpenAICompatClientPrefix(cfg, "gemini", "")}
}

func (p *geminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	return p.base.complete(ctx, req)
}

func (p *geminiProvider) Name() string { return p.base.name }
