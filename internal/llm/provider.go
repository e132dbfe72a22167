package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider is the narrow completion boundary the pipeline depends on.
// Provider-specific API shapes stay behind this interface.
type Provider interface {
	// Complete sends a prompt and returns the raw model text.
	Complete(ctx context.Context, req Request) (string, error)
	// Name identifies the provider for logs and stats.
	Name() string
}

// Request is a single completion call.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	// ForceJSON asks the provider for a JSON-object response where supported.
	ForceJSON bool
}

// Config configures a provider.
type Config struct {
	Provider string // gemini, openai, groq, ollama, custom
	Model    string
	BaseURL  string
	APIKey   string
	// Timeout bounds each outbound call. A timeout surfaces as a
	// RetryableError so callers can apply their retry policy.
	Timeout time.Duration
}

// NewProvider creates a provider from configuration.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	switch cfg.Provider {
	case "gemini":
		return NewGemini(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "groq":
		return NewGroq(cfg), nil
	case "ollama":
		return NewOllama(cfg), nil
	case "custom":
		return NewOpenAICompat(cfg), nil
	case "":
		return nil, fmt.Errorf("llm: provider not specified")
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// RetryableError indicates a transient failure (timeout, rate limit, server
// error) worth retrying. RetryAfter carries the server's hint when present.
type RetryableError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
