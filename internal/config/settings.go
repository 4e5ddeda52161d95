package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/categorizer"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/llm"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/matcher"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/plaid"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/storage"
)

// LoggingSettings selects the slog handler.
type LoggingSettings struct {
	Level  string
	Format string
}

// CategorizerSettings tunes merchant resolution.
type CategorizerSettings struct {
	LearnThreshold float64
	Concurrency    int
}

// MatchingSettings picks the default weight preset and result count.
type MatchingSettings struct {
	Mode matcher.Mode
	TopN int
}

// SimpleFINSettings locates a SimpleFIN bridge. AccessURL wins over Token,
// which is claimed once and saved under DataDir.
type SimpleFINSettings struct {
	AccessURL string
	Token     string
}

// Settings is the fully resolved configuration.
type Settings struct {
	LLM         llm.Config
	Plaid       plaid.Config
	SimpleFIN   SimpleFINSettings
	Database    storage.Config
	Logging     LoggingSettings
	CatalogPath string
	MetricsAddr string
	Matching    MatchingSettings
	Categorizer CategorizerSettings
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.driver", storage.DriverSQLite)
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("database.url", "")

	v.SetDefault("llm.provider", llm.ProviderNone)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.cache_ttl", "24h")
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 300)

	v.SetDefault("categorizer.learn_threshold", categorizer.DefaultLearnThreshold)
	v.SetDefault("categorizer.concurrency", categorizer.DefaultConcurrency)

	v.SetDefault("catalog.path", "")
	v.SetDefault("matching.mode", string(matcher.ModeStatement))
	v.SetDefault("matching.top_n", 5)
	v.SetDefault("metrics.addr", "")

	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("plaid.client_id", "")
	v.SetDefault("plaid.secret", "")
	v.SetDefault("plaid.access_token", "")

	v.SetDefault("simplefin.access_url", "")
	v.SetDefault("simplefin.token", "")
}

// Load resolves settings. Precedence:
//  1. Viper (flags, config file, CARDCARRY_ env vars)
//  2. Provider environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY,
//     DATABASE_URL, PLAID_CLIENT_ID, PLAID_SECRET, PLAID_ACCESS_TOKEN,
//     SIMPLEFIN_TOKEN)
//  3. Defaults
//
// A nil v uses the global viper instance.
func Load(v *viper.Viper) (*Settings, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	s := &Settings{
		Logging: LoggingSettings{
			Level:  strings.ToLower(v.GetString("logging.level")),
			Format: strings.ToLower(v.GetString("logging.format")),
		},
		Database: storage.Config{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   ExpandPath(v.GetString("database.path")),
			URL:    v.GetString("database.url"),
		},
		LLM: llm.Config{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			Endpoint:    v.GetString("llm.endpoint"),
			APIKey:      v.GetString("llm.api_key"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Timeout:     v.GetDuration("llm.timeout"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Categorizer: CategorizerSettings{
			LearnThreshold: v.GetFloat64("categorizer.learn_threshold"),
			Concurrency:    v.GetInt("categorizer.concurrency"),
		},
		CatalogPath: ExpandPath(v.GetString("catalog.path")),
		Matching: MatchingSettings{
			Mode: matcher.Mode(strings.ToLower(v.GetString("matching.mode"))),
			TopN: v.GetInt("matching.top_n"),
		},
		MetricsAddr: v.GetString("metrics.addr"),
		Plaid: plaid.Config{
			ClientID:    firstNonEmpty(v.GetString("plaid.client_id"), os.Getenv("PLAID_CLIENT_ID")),
			Secret:      firstNonEmpty(v.GetString("plaid.secret"), os.Getenv("PLAID_SECRET")),
			Environment: strings.ToLower(v.GetString("plaid.environment")),
			AccessToken: firstNonEmpty(v.GetString("plaid.access_token"), os.Getenv("PLAID_ACCESS_TOKEN")),
		},
		SimpleFIN: SimpleFINSettings{
			AccessURL: v.GetString("simplefin.access_url"),
			Token:     firstNonEmpty(v.GetString("simplefin.token"), os.Getenv("SIMPLEFIN_TOKEN")),
		},
	}

	if s.LLM.APIKey == "" {
		s.LLM.APIKey = providerKey(s.LLM.Provider)
	}
	if s.Database.URL == "" && s.Database.Driver == storage.DriverPostgres {
		s.Database.URL = os.Getenv("DATABASE_URL")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func providerKey(provider string) string {
	switch provider {
	case llm.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Validate checks values that would otherwise fail deep inside a command.
func (s *Settings) Validate() error {
	switch s.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid log level %q", common.ErrInvalidConfig, s.Logging.Level)
	}
	switch s.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, s.Logging.Format)
	}

	switch s.Database.Driver {
	case storage.DriverSQLite:
		if strings.TrimSpace(s.Database.Path) == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", common.ErrInvalidConfig)
		}
	case storage.DriverPostgres:
		if strings.TrimSpace(s.Database.URL) == "" {
			return fmt.Errorf("%w: database.url is required for postgres", common.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", common.ErrInvalidConfig, s.Database.Driver)
	}

	switch s.LLM.Provider {
	case "", llm.ProviderNone, llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderHTTP:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}

	if t := s.Categorizer.LearnThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("%w: categorizer.learn_threshold must be in (0, 1], got %v", common.ErrInvalidConfig, t)
	}
	if _, err := matcher.WeightsForMode(s.Matching.Mode); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if s.LLM.RetryDelay < 0 || s.LLM.CacheTTL < 0 || s.LLM.Timeout < 0 {
		return fmt.Errorf("%w: llm durations must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

// InferenceEnabled reports whether an inference provider is configured.
func (s *Settings) InferenceEnabled() bool {
	return s.LLM.Provider != "" && s.LLM.Provider != llm.ProviderNone
}
