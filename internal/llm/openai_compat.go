package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// openAICompatClient is the shared base for all OpenAI-compatible providers.
// It performs a single call per invocation; transient failures are returned
// as *RetryableError and the caller decides whether to retry.
type openAICompatClient struct {
	cfg        Config
	name       string
	pathPrefix string // API path prefix, "/v1" for standard providers
	httpClient *http.Client
}

func newOpenAICompatClient(cfg Config, name string) openAICompatClient {
	return newOpenAICompatClientPrefix(cfg, name, "/v1")
}

func newOpenAICompatClientPrefix(cfg Config, name, prefix string) openAICompatClient {
	return openAICompatClient{
		cfg:        cfg,
		name:       name,
		pathPrefix: prefix,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// NewOpenAICompat creates a provider for any OpenAI-compatible endpoint.
// BaseURL is required for this provider.
func NewOpenAICompat(cfg Config) Provider {
	return &openAICompatProvider{base: newOpenAICompatClient(cfg, "custom")}
}

type openAICompatProvider struct {
	base openAICompatClient
}

func (p *openAICompatProvider) Complete(ctx context.Context, req Request) (string, error) {
	return p.base.complete(ctx, req)
}

func (p *openAICompatProvider) Name() string { return p.base.name }

// --- shared implementation ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *openAICompatClient) complete(ctx context.Context, req Request) (string, error) {
	body := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.ForceJSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.cfg.BaseURL + c.pathPrefix + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Network errors and client timeouts are transient.
		return "", &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &RetryableError{Message: "read response: " + err.Error()}
	}

	if retryableStatusCode(resp.StatusCode) {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s api status %d: %s", c.name, resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("%s error: %s: %s", c.name, apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty response", c.name)
	}
	return apiResp.Choices[0].Message.Content, nil
}

// retryableStatusCode returns true for HTTP statuses that warrant a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
