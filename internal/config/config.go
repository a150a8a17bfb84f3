package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AIConfig struct {
	Provider         string            `yaml:"provider"` // gemini | openai | anthropic
	GeminiKey        string            `yaml:"gemini_key"`
	GeminiURL        string            `yaml:"gemini_url"`
	OpenAIKey        string            `yaml:"openai_key"`
	OpenAIBaseURL    string            `yaml:"openai_base_url"`
	AnthropicKey     string            `yaml:"anthropic_key"`
	AnthropicBaseURL string            `yaml:"anthropic_base_url"`
	DefaultModel     string            `yaml:"default_model"`
	Models           map[string]string `yaml:"models"` // model -> provider
	MaxOutputTokens  int               `yaml:"max_output_tokens"`
	Timeout          time.Duration     `yaml:"timeout"`          // bounded wait per classification
	ConcurrentLimit  int               `yaml:"concurrent_limit"` // max concurrent AI calls
}

type BuildConfig struct {
	Version string `yaml:"version"`
	Commit  string `yaml:"commit"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	AI     AIConfig     `yaml:"ai"`
	Build  BuildConfig  `yaml:"build"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DefaultModel          = "gemini-3-flash-preview"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// LoadConfig reads the YAML file at path. A missing file is accepted so the
// service can run from environment variables alone. envFile names an optional
// dotenv file; variables already set in the process environment win over it.
func LoadConfig(path, envFile string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.Runtime.Dev = dev
	getenv, err := envLookup(envFile)
	if err != nil {
		return nil, err
	}
	applyEnv(&cfg, getenv)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if cfg.AI.GeminiKey == "" {
		cfg.AI.GeminiKey = firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("API_KEY"))
	}
	if cfg.AI.OpenAIKey == "" {
		cfg.AI.OpenAIKey = getenv("OPENAI_API_KEY")
	}
	if cfg.AI.AnthropicKey == "" {
		cfg.AI.AnthropicKey = getenv("ANTHROPIC_API_KEY")
	}
}

// envLookup layers the process environment over the dotenv file.
func envLookup(envFile string) (func(string) string, error) {
	if envFile == "" {
		return os.Getenv, nil
	}
	file, err := godotenv.Read(envFile)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return os.Getenv, nil
	default:
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return file[key]
	}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if cfg.AI.Provider == "" {
		switch {
		case cfg.AI.GeminiKey != "":
			cfg.AI.Provider = "gemini"
		case cfg.AI.OpenAIKey != "":
			cfg.AI.Provider = "openai"
		case cfg.AI.AnthropicKey != "":
			cfg.AI.Provider = "anthropic"
		default:
			cfg.AI.Provider = "gemini"
		}
	}
	if cfg.AI.DefaultModel == "" {
		switch cfg.AI.Provider {
		case "openai":
			cfg.AI.DefaultModel = DefaultOpenAIModel
		case "anthropic":
			cfg.AI.DefaultModel = DefaultAnthropicModel
		default:
			cfg.AI.DefaultModel = DefaultModel
		}
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 4
	}
	if cfg.Build.Version == "" {
		cfg.Build.Version = "dev"
	}
}

// Validate performs minimal validation after defaults are applied.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "gemini":
		if c.AI.GeminiKey == "" {
			return errors.New("ai.gemini_key (or GEMINI_API_KEY / API_KEY) is required for provider gemini")
		}
	case "openai":
		if c.AI.OpenAIKey == "" {
			return errors.New("ai.openai_key (or OPENAI_API_KEY) is required for provider openai")
		}
	case "anthropic":
		if c.AI.AnthropicKey == "" {
			return errors.New("ai.anthropic_key (or ANTHROPIC_API_KEY) is required for provider anthropic")
		}
	default:
		return fmt.Errorf("ai.provider %q is not supported", c.AI.Provider)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.AI.Timeout > c.Server.RequestTimeout {
		return errors.New("ai.timeout must not exceed server.request_timeout")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
