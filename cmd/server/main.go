package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shikhar5647/scene-graph-agent/internal/api"
	"github.com/shikhar5647/scene-graph-agent/internal/config"
	"github.com/shikhar5647/scene-graph-agent/internal/enrich"
	"github.com/shikhar5647/scene-graph-agent/internal/llm"
	"github.com/shikhar5647/scene-graph-agent/internal/pipeline"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
	"github.com/shikhar5647/scene-graph-agent/internal/verify"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Taxonomy: compiled-in chest-radiograph registry unless overridden.
	reg := taxonomy.Default()
	if cfg.TaxonomyPath != "" {
		var err error
		reg, err = taxonomy.Load(cfg.TaxonomyPath)
		if err != nil {
			log.Error("load taxonomy", "path", cfg.TaxonomyPath, "error", err)
			os.Exit(1)
		}
	}

	// Completion service client; every stage shares it so the stats
	// endpoint sees all outbound calls.
	provider, err := llm.NewProvider(llm.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		log.Error("configure completion provider", "error", err)
		os.Exit(1)
	}
	client := llm.NewClient(provider, cfg.LLMModel)

	enrichTmpl, err := loadTemplate(cfg.EnrichTemplatePath)
	if err != nil {
		log.Error("load enrichment template", "path", cfg.EnrichTemplatePath, "error", err)
		os.Exit(1)
	}
	verifyTmpl, err := loadTemplate(cfg.VerifyTemplatePath)
	if err != nil {
		log.Error("load verification template", "path", cfg.VerifyTemplatePath, "error", err)
		os.Exit(1)
	}

	enricher := enrich.NewClient(client, reg, enrichTmpl, cfg.LLMMaxRetries, log)
	verifier := verify.NewVerifier(reg, verify.Mode(cfg.VerifyMode), client, verifyTmpl, cfg.VerifyThreshold, log)
	runner := pipeline.NewRunner(reg, enricher, verifier, log, cfg.EnrichConcurrency, cfg.VerifyConcurrency)

	orch := pipeline.NewOrchestrator(cfg, runner, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, runner, client, reg, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting scene-graph service",
		"port", cfg.Port,
		"provider", provider.Name(),
		"model", cfg.LLMModel,
		"verify_mode", cfg.VerifyMode,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// loadTemplate reads a prompt template override; an empty path means the
// compiled-in default.
func loadTemplate(path string) (*enrich.Template, error) {
	if path == "" {
		return nil, nil
	}
	return enrich.LoadTemplate(path)
}
