package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/thywilljoshua/pdf-rag/internal/ai"
)

type Config struct {
	OutputDir    string        `mapstructure:"output_dir"`
	LogLevel     string        `mapstructure:"log_level"`
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	Caption      CaptionConfig `mapstructure:"caption"`
	OpenAI       OpenAIConfig  `mapstructure:"openai"`
	Cache        CacheConfig   `mapstructure:"cache"`
}

type CaptionConfig struct {
	RequestsPerMinute float64       `mapstructure:"requests_per_minute"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	// Candidates are "provider/model" pairs tried in order.
	Candidates []string `mapstructure:"candidates"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type CacheConfig struct {
	// DSN of a Postgres database for caching captions. Empty disables the cache.
	DSN string `mapstructure:"dsn"`
}

// Load reads .env (if present), the config file and PDFRAG_* environment
// variables. An empty path looks for pdfrag.yaml in the working directory
// and continues without one if it is missing.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PDFRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("gemini_api_key", "PDFRAG_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("openai.api_key", "PDFRAG_OPENAI_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("pdfrag")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "outputs")
	v.SetDefault("log_level", "info")
	v.SetDefault("caption.requests_per_minute", 5)
	v.SetDefault("caption.max_attempts", ai.DefaultMaxAttempts)
	v.SetDefault("caption.base_delay", ai.DefaultBaseDelay)
	v.SetDefault("caption.candidates", []string{"gemini/gemini-2.5-flash", "gemini/gemini-2.0-flash"})
	v.SetDefault("openai.base_url", ai.GeminiOpenAIURL)
	v.SetDefault("cache.dsn", "")
}

// Providers lists the distinct providers referenced by the candidates.
func (c *Config) Providers() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range c.Caption.Candidates {
		p, _, _ := strings.Cut(strings.TrimSpace(s), "/")
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Validate checks everything captioning needs. It is only required when
// captions are enabled.
func (c *Config) Validate() error {
	if c.Caption.RequestsPerMinute <= 0 {
		return fmt.Errorf("caption.requests_per_minute=%v: %w", c.Caption.RequestsPerMinute, ai.ErrInvalidRate)
	}
	if c.Caption.MaxAttempts < 1 {
		return fmt.Errorf("caption.max_attempts must be at least 1, got %d", c.Caption.MaxAttempts)
	}
	if len(c.Caption.Candidates) == 0 {
		return errors.New("caption.candidates is empty")
	}
	for _, p := range c.Providers() {
		switch p {
		case "gemini":
			if c.GeminiAPIKey == "" {
				return fmt.Errorf("gemini: %w (set GEMINI_API_KEY)", ai.ErrMissingCredentials)
			}
		case "openai":
			if c.OpenAI.APIKey == "" {
				return fmt.Errorf("openai: %w (set OPENAI_API_KEY)", ai.ErrMissingCredentials)
			}
		default:
			return fmt.Errorf("unknown caption provider %q", p)
		}
	}
	return nil
}
