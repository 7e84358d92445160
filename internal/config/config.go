// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/fitness-planner/internal/llm"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config represents the service configuration. It can be loaded from a JSON
// file and overlaid with environment variables; missing values use defaults.
type Config struct {
	// LLM
	LLMProvider   string            `json:"llm_provider,omitempty"`    // gemini or openai
	GeminiAPIKey  string            `json:"gemini_api_key,omitempty"`  // Gemini API key
	OpenAIAPIKey  string            `json:"openai_api_key,omitempty"`  // OpenAI API key
	OpenAIBaseURL string            `json:"openai_base_url,omitempty"` // OpenAI-compatible endpoint
	Models        map[string]string `json:"models,omitempty"`          // Model override per tier (lite, standard, advanced)
	Temperature   float32           `json:"temperature,omitempty"`

	// Generation
	BatchSize        int      `json:"batch_size,omitempty"`    // Workout day types per detail call
	Budget           Duration `json:"budget,omitempty"`        // Wall-clock limit of a full generation
	StageTimeout     Duration `json:"stage_timeout,omitempty"` // Limit of a single completion call
	MaxAttempts      int      `json:"max_attempts,omitempty"`  // Attempts for blueprint and detail stages
	SingleDetailCall bool     `json:"single_detail_call,omitempty"`

	// Storage
	StoreBackend    string   `json:"store_backend,omitempty"` // memory, postgres or redis
	DatabaseURL     string   `json:"database_url,omitempty"`  // PostgreSQL connection URL
	RedisURL        string   `json:"redis_url,omitempty"`     // Redis connection URL
	StoreTTL        Duration `json:"store_ttl,omitempty"`     // Expiry of stored plans (redis)
	MemoryStoreSize int      `json:"memory_store_size,omitempty"`

	// Server
	Port               int `json:"port,omitempty"`
	GenerateRatePerMin int `json:"generate_rate_per_min,omitempty"` // Per-client limit on generation endpoints
	DefaultRatePerMin  int `json:"default_rate_per_min,omitempty"`  // Per-client limit on other endpoints

	// Behavior
	LogMode string `json:"log_mode,omitempty"` // development or production
	Verbose bool   `json:"verbose,omitempty"`  // Print detailed debug information
}

// Duration is a time.Duration read from JSON as a string ("55s") or a number of seconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := parseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds: %w", err)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLMProvider:        string(llm.ProviderGemini),
		BatchSize:          3,
		Budget:             Duration(55 * time.Second),
		StageTimeout:       Duration(45 * time.Second),
		MaxAttempts:        3,
		StoreBackend:       StoreMemory,
		StoreTTL:           Duration(120 * 24 * time.Hour),
		MemoryStoreSize:    1024,
		Port:               8080,
		GenerateRatePerMin: 5,
		DefaultRatePerMin:  60,
		LogMode:            "production",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load reads the optional config file at path, overlays the process
// environment, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields with the environment variables that are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config error: %s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}
	duration := func(key string, dst *Duration) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: %s: %w", key, err)
		}
		*dst = Duration(d)
		return nil
	}

	str("LLM_PROVIDER", &c.LLMProvider)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	str("STORE_BACKEND", &c.StoreBackend)
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_URL", &c.RedisURL)
	str("LOG_MODE", &c.LogMode)

	for key, dst := range map[string]*int{
		"PLAN_BATCH_SIZE":   &c.BatchSize,
		"PLAN_MAX_ATTEMPTS": &c.MaxAttempts,
		"PORT":              &c.Port,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*Duration{
		"PLAN_BUDGET":        &c.Budget,
		"PLAN_STAGE_TIMEOUT": &c.StageTimeout,
		"PLAN_STORE_TTL":     &c.StoreTTL,
	} {
		if err := duration(key, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup("PLAN_SINGLE_DETAIL_CALL"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config error: PLAN_SINGLE_DETAIL_CALL must be a boolean: %w", err)
		}
		c.SingleDetailCall = b
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: API keys are not required here; commands that call a model check for them.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLMProvider) {
	case "", string(llm.ProviderGemini), string(llm.ProviderOpenAI):
	default:
		return fmt.Errorf("config error: unknown llm_provider %q", c.LLMProvider)
	}

	// Validate numeric ranges
	if c.BatchSize < 0 {
		return fmt.Errorf("config error: 'batch_size' must be non-negative")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.Budget < 0 || c.StageTimeout < 0 || c.StoreTTL < 0 {
		return fmt.Errorf("config error: durations must be non-negative")
	}
	if c.Budget > 0 && c.StageTimeout > c.Budget {
		return fmt.Errorf("config error: 'stage_timeout' (%s) must not exceed 'budget' (%s)", c.StageTimeout.Std(), c.Budget.Std())
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch c.StoreBackend {
	case "", StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config error: 'redis_url' is required for the redis store")
		}
	default:
		return fmt.Errorf("config error: unknown store_backend %q", c.StoreBackend)
	}

	for tier := range c.Models {
		switch llm.ModelTier(tier) {
		case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	for _, f := range []struct{ dst, def *string }{
		{&result.LLMProvider, &defaults.LLMProvider},
		{&result.GeminiAPIKey, &defaults.GeminiAPIKey},
		{&result.OpenAIAPIKey, &defaults.OpenAIAPIKey},
		{&result.OpenAIBaseURL, &defaults.OpenAIBaseURL},
		{&result.StoreBackend, &defaults.StoreBackend},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.RedisURL, &defaults.RedisURL},
		{&result.LogMode, &defaults.LogMode},
	} {
		if *f.dst == "" {
			*f.dst = *f.def
		}
	}

	// Int fields: use default if zero
	for _, f := range []struct{ dst, def *int }{
		{&result.BatchSize, &defaults.BatchSize},
		{&result.MaxAttempts, &defaults.MaxAttempts},
		{&result.MemoryStoreSize, &defaults.MemoryStoreSize},
		{&result.Port, &defaults.Port},
		{&result.GenerateRatePerMin, &defaults.GenerateRatePerMin},
		{&result.DefaultRatePerMin, &defaults.DefaultRatePerMin},
	} {
		if *f.dst == 0 {
			*f.dst = *f.def
		}
	}

	for _, f := range []struct{ dst, def *Duration }{
		{&result.Budget, &defaults.Budget},
		{&result.StageTimeout, &defaults.StageTimeout},
		{&result.StoreTTL, &defaults.StoreTTL},
	} {
		if *f.dst == 0 {
			*f.dst = *f.def
		}
	}

	if result.Models == nil && defaults.Models != nil {
		result.Models = make(map[string]string, len(defaults.Models))
		for k, v := range defaults.Models {
			result.Models[k] = v
		}
	}
	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Provider returns the configured LLM provider.
func (c *Config) Provider() llm.Provider {
	return llm.ParseProvider(c.LLMProvider)
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.Provider() == llm.ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// LLMConfig returns the model configuration for the configured provider with
// any per-tier overrides applied.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfigFor(c.Provider())
	for tier, model := range c.Models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	if c.Temperature != 0 {
		cfg.Temperature = c.Temperature
	}
	return cfg
}

// NewLLMClient creates a client for the configured provider. It fails when
// the provider's API key is missing.
func (c *Config) NewLLMClient(ctx context.Context) (llm.Client, error) {
	key := c.APIKey()
	if key == "" {
		return nil, fmt.Errorf("config error: API key for provider %q is not set", c.Provider())
	}
	cfg := c.LLMConfig()
	if cfg.Provider == llm.ProviderOpenAI && c.OpenAIBaseURL != "" {
		return llm.NewOpenAIClient(cfg, key, llm.WithBaseURL(c.OpenAIBaseURL))
	}
	return llm.NewClient(ctx, cfg, key)
}
