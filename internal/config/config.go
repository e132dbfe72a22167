package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Completion service
	LLMProvider   string
	LLMModel      string
	LLMAPIKey     string
	LLMBaseURL    string
	LLMTimeout    time.Duration
	LLMMaxRetries int

	// Pipeline stages
	EnrichConcurrency int
	VerifyConcurrency int
	VerifyMode        string
	VerifyThreshold   float64

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxReportBytes int64

	// Run state
	RunTTL time.Duration

	// External configuration files (optional, compiled-in defaults apply)
	TaxonomyPath       string
	EnrichTemplatePath string
	VerifyTemplatePath string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SCENEGRAPH_API_KEY"),

		LLMProvider:   envOr("LLM_PROVIDER", "gemini"),
		LLMModel:      envOr("LLM_MODEL", "gemini-2.5-pro"),
		LLMAPIKey:     envOr("LLM_API_KEY", os.Getenv("GEMINI_API_KEY")),
		LLMBaseURL:    os.Getenv("LLM_BASE_URL"),
		LLMTimeout:    envDuration("LLM_TIMEOUT", 60*time.Second),
		LLMMaxRetries: envInt("LLM_MAX_RETRIES", 3),

		EnrichConcurrency: envInt("ENRICH_CONCURRENCY", 4),
		VerifyConcurrency: envInt("VERIFY_CONCURRENCY", 4),
		VerifyMode:        envOr("VERIFY_MODE", "heuristic"),
		VerifyThreshold:   envFloat("VERIFY_THRESHOLD", 0.35),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxReportBytes: envInt64("MAX_REPORT_BYTES", 10485760), // 10MB

		RunTTL: envDuration("RUN_TTL", 1*time.Hour),

		TaxonomyPath:       os.Getenv("TAXONOMY_PATH"),
		EnrichTemplatePath: os.Getenv("ENRICH_TEMPLATE_PATH"),
		VerifyTemplatePath: os.Getenv("VERIFY_TEMPLATE_PATH"),
	}

	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	if cfg.LLMMaxRetries <= 0 {
		cfg.LLMMaxRetries = 3
	}
	if cfg.EnrichConcurrency <= 0 {
		cfg.EnrichConcurrency = 4
	}
	if cfg.VerifyConcurrency <= 0 {
		cfg.VerifyConcurrency = 4
	}
	if cfg.VerifyThreshold <= 0 || cfg.VerifyThreshold >= 1 {
		cfg.VerifyThreshold = 0.35
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxReportBytes <= 0 {
		cfg.MaxReportBytes = 10485760
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case "gemini", "openai", "groq":
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for provider %q", c.LLMProvider)
		}
	case "ollama":
	case "custom":
		if c.LLMBaseURL == "" {
			return fmt.Errorf("LLM_BASE_URL is required for provider \"custom\"")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.VerifyMode != "heuristic" && c.VerifyMode != "llm" {
		return fmt.Errorf("VERIFY_MODE must be \"heuristic\" or \"llm\", got %q", c.VerifyMode)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
