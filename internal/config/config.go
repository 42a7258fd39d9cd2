package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"

	DefaultOllamaEndpoint = "http://localhost:11434/api/generate"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR"  envDefault:":8000"`
	WebUIDir string     `env:"WEB_UI_DIR" envDefault:"web_ui"`
	LogLevel slog.Level `env:"LOG_LEVEL"  envDefault:"info"`

	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT"    envDefault:"10s"`
	FetchUserAgent string        `env:"FETCH_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"`
	MaxPageBytes   int64         `env:"MAX_PAGE_BYTES"   envDefault:"5242880"`

	LLMBackend     string        `env:"LLM_BACKEND"     envDefault:"ollama"`
	LLMEndpoint    string        `env:"LLM_ENDPOINT"`
	LLMModel       string        `env:"LLM_MODEL"       envDefault:"gemma3"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	LLMTemperature float64       `env:"LLM_TEMPERATURE" envDefault:"0.3"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT"     envDefault:"30s"`

	TelegramToken string `env:"TELEGRAM_TOKEN"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err = cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Endpoint is LLM_ENDPOINT, or the local Ollama address when it is unset
// for the ollama backend. An empty result means the SDK default.
func (c Config) Endpoint() string {
	if c.LLMEndpoint == "" && c.LLMBackend == BackendOllama {
		return DefaultOllamaEndpoint
	}

	return c.LLMEndpoint
}

func (c Config) validate() error {
	switch c.LLMBackend {
	case BackendOllama:
	case BackendOpenAI:
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for backend %q", c.LLMBackend)
		}
	default:
		return fmt.Errorf("unknown LLM_BACKEND %q", c.LLMBackend)
	}

	if c.FetchTimeout <= 0 || c.LLMTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive (fetch %s, llm %s)", c.FetchTimeout, c.LLMTimeout)
	}

	if c.MaxPageBytes <= 0 {
		return fmt.Errorf("MAX_PAGE_BYTES must be positive, got %d", c.MaxPageBytes)
	}

	return nil
}
