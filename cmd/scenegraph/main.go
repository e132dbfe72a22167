package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shikhar5647/scene-graph-agent/internal/config"
	"github.com/shikhar5647/scene-graph-agent/internal/enrich"
	"github.com/shikhar5647/scene-graph-agent/internal/export"
	"github.com/shikhar5647/scene-graph-agent/internal/llm"
	"github.com/shikhar5647/scene-graph-agent/internal/parser"
	"github.com/shikhar5647/scene-graph-agent/internal/pipeline"
	"github.com/shikhar5647/scene-graph-agent/internal/scenegraph"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
	"github.com/shikhar5647/scene-graph-agent/internal/verify"
)

type cliOptions struct {
	inputPath  string
	format     string
	outPath    string
	provider   string
	model      string
	baseURL    string
	verifyMode string
	timeout    time.Duration
	verbose    bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("scenegraph: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("scenegraph: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.inputPath, "input", "", "Report file (.txt, .md, .html, .pdf, .docx); \"-\" or empty reads plain text from stdin")
	flag.StringVar(&opts.format, "format", "json", "Output format: json (scene graph), csv or xlsx (object-attribute matrix)")
	flag.StringVar(&opts.outPath, "out", "", "File to write output to (default stdout)")
	flag.StringVar(&opts.provider, "provider", "", "Completion provider: gemini, openai, groq, ollama or custom (default $LLM_PROVIDER)")
	flag.StringVar(&opts.model, "model", "", "Model name (default $LLM_MODEL)")
	flag.StringVar(&opts.baseURL, "base-url", "", "Base URL for the ollama and custom providers (default $LLM_BASE_URL)")
	flag.StringVar(&opts.verifyMode, "verify", "", "Verification mode: heuristic or llm (default $VERIFY_MODE)")
	flag.DurationVar(&opts.timeout, "timeout", 0, "Overall extraction deadline, e.g. 2m (0 means none)")
	flag.BoolVar(&opts.verbose, "v", false, "Log pipeline progress to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -input report.txt [options]\n\nExtracts a radiology scene graph from one report. API keys are read\nfrom $LLM_API_KEY (or $GEMINI_API_KEY).\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	switch opts.format {
	case "json", "csv", "xlsx":
	default:
		flag.Usage()
		return opts, fmt.Errorf("unknown -format %q", opts.format)
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg := config.Load()
	if opts.provider != "" {
		cfg.LLMProvider = opts.provider
	}
	if opts.model != "" {
		cfg.LLMModel = opts.model
	}
	if opts.baseURL != "" {
		cfg.LLMBaseURL = opts.baseURL
	}
	if opts.verifyMode != "" {
		cfg.VerifyMode = opts.verifyMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdout carries the document; all logging goes to stderr.
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := taxonomy.Default()
	if cfg.TaxonomyPath != "" {
		var err error
		reg, err = taxonomy.Load(cfg.TaxonomyPath)
		if err != nil {
			return fmt.Errorf("load taxonomy: %w", err)
		}
	}

	report, err := readInput(opts.inputPath)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(llm.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		return fmt.Errorf("configure provider: %w", err)
	}
	client := llm.NewClient(provider, cfg.LLMModel)

	enrichTmpl, err := loadTemplate(cfg.EnrichTemplatePath)
	if err != nil {
		return fmt.Errorf("load enrichment template: %w", err)
	}
	verifyTmpl, err := loadTemplate(cfg.VerifyTemplatePath)
	if err != nil {
		return fmt.Errorf("load verification template: %w", err)
	}

	enricher := enrich.NewClient(client, reg, enrichTmpl, cfg.LLMMaxRetries, logger)
	verifier := verify.NewVerifier(reg, verify.Mode(cfg.VerifyMode), client, verifyTmpl, cfg.VerifyThreshold, logger)
	runner := pipeline.NewRunner(reg, enricher, verifier, logger, cfg.EnrichConcurrency, cfg.VerifyConcurrency)

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	graph, err := runner.Process(ctx, report)
	if err != nil {
		return err
	}
	if !graph.Summary.Complete {
		logger.Warn("extraction incomplete",
			"enrichment_failed", graph.Summary.EnrichmentFailed,
			"discarded", graph.Summary.Discarded,
		)
	}

	out := io.Writer(os.Stdout)
	if opts.outPath != "" {
		f, err := os.Create(opts.outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writeOutput(out, opts.format, reg, graph)
}

// readInput loads the report text. Files go through the format parser for
// their extension; stdin is taken as plain text.
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	name := filepath.Base(path)
	p, err := parser.ForFile(name)
	if err != nil {
		return "", err
	}
	text, err := p.Parse(bytes.NewReader(data), name)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	return text, nil
}

func writeOutput(w io.Writer, format string, reg *taxonomy.Registry, g *scenegraph.Graph) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case "csv":
		m, err := scenegraph.BuildMatrix(reg, g)
		if err != nil {
			return err
		}
		return export.WriteMatrixCSV(w, m)
	case "xlsx":
		m, err := scenegraph.BuildMatrix(reg, g)
		if err != nil {
			return err
		}
		return export.WriteMatrixXLSX(w, m)
	}
	return fmt.Errorf("unknown format %q", format)
}

func loadTemplate(path string) (*enrich.Template, error) {
	if path == "" {
		return nil, nil
	}
	return enrich.LoadTemplate(path)
}
