package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/shikhar5647/scene-graph-agent/internal/extract"
	"github.com/shikhar5647/scene-graph-agent/internal/llm"
	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
	"github.com/shikhar5647/scene-graph-agent/internal/segment"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

const enrichMaxTokens = 1024

// EnrichedCandidate extends a candidate with the normalized attribute set
// parsed from the completion service. Raw keeps the last model reply for
// debugging. A failed candidate keeps its identity for reporting but carries
// no attributes.
type EnrichedCandidate struct {
	extract.Candidate
	Attrs  scenegraph.Attributes
	Raw    string
	Failed bool
}

// Client enriches candidates through the completion service.
type Client struct {
	provider   llm.Provider
	reg        *taxonomy.Registry
	tmpl       *Template
	categories []string
	maxRetries int
	log        *slog.Logger
	backoff    func(attempt int, err error) time.Duration
}

func NewClient(provider llm.Provider, reg *taxonomy.Registry, tmpl *Template, maxRetries int, log *slog.Logger) *Client {
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}
	if maxRetries <= 0 {
		maxRetries = MaxRetries
	}
	return &Client{
		provider:   provider,
		reg:        reg,
		tmpl:       tmpl,
		categories: reg.Categories(),
		maxRetries: maxRetries,
		log:        log,
		backoff:    Backoff,
	}
}

// Enrich runs one candidate through the completion service with bounded
// retries on transient failure. An unparseable reply spends an attempt too:
// a fresh completion may still produce valid JSON. Exhaustion marks the
// candidate Failed and returns the last error for bookkeeping; the caller
// decides whether the run continues.
func (c *Client) Enrich(ctx context.Context, cand extract.Candidate, sent segment.Sentence) (EnrichedCandidate, error) {
	ec := EnrichedCandidate{Candidate: cand}

	prompt, err := c.tmpl.Render(PromptData{
		Object:     cand.Object,
		Phrase:     cand.Phrase,
		Sentence:   sent.Text,
		Section:    string(sent.Section),
		Categories: c.categories,
	})
	if err != nil {
		ec.Failed = true
		return ec, err
	}

	var lastErr error
	for attempt := range c.maxRetries {
		text, err := c.provider.Complete(ctx, llm.Request{
			Prompt:    prompt,
			MaxTokens: enrichMaxTokens,
			ForceJSON: true,
		})
		if err != nil {
			lastErr = err
			if !IsRetryable(err) || attempt == c.maxRetries-1 {
				break
			}
			c.log.Warn("retryable enrichment error",
				"object", cand.Object, "sentence", cand.SentenceIndex, "attempt", attempt, "error", err)
			select {
			case <-time.After(c.backoff(attempt, err)):
				continue
			case <-ctx.Done():
				ec.Failed = true
				return ec, ctx.Err()
			}
		}

		ec.Raw = text
		attrs, perr := ParseResponse(c.reg, text)
		if perr != nil {
			lastErr = perr
			c.log.Warn("unparseable enrichment reply",
				"object", cand.Object, "sentence", cand.SentenceIndex, "attempt", attempt, "error", perr)
			continue
		}
		ec.Attrs = attrs
		return ec, nil
	}

	ec.Failed = true
	return ec, lastErr
}
