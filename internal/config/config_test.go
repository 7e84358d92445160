package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fitness-planner/internal/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"llm_provider": "openai",
		"openai_api_key": "sk-test",
		"batch_size": 4,
		"budget": "50s",
		"stage_timeout": 30,
		"store_backend": "redis",
		"redis_url": "redis://localhost:6379/0",
		"models": {"lite": "gpt-4o-mini"},
		"single_detail_call": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 50*time.Second, cfg.Budget.Std())
	assert.Equal(t, 30*time.Second, cfg.StageTimeout.Std())
	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.Equal(t, "gpt-4o-mini", cfg.Models["lite"])
	assert.True(t, cfg.SingleDetailCall)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.EqualError(t, err, "config path is empty")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeConfig(t, `{not json`))
	assert.ErrorContains(t, err, "failed to parse config JSON")

	_, err = LoadConfig(writeConfig(t, `{"budget": "soon"}`))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{LLMProvider: "gemini", BatchSize: 2}
	err := cfg.ApplyEnv(envMap(map[string]string{
		"LLM_PROVIDER":            "openai",
		"OPENAI_API_KEY":          " sk-env ",
		"PLAN_BATCH_SIZE":         "5",
		"PLAN_BUDGET":             "40s",
		"PLAN_STAGE_TIMEOUT":      "20",
		"STORE_BACKEND":           "postgres",
		"DATABASE_URL":            "postgres://localhost/plans",
		"PLAN_SINGLE_DETAIL_CALL": "true",
		"GEMINI_API_KEY":          "   ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "sk-env", cfg.OpenAIAPIKey)
	assert.Empty(t, cfg.GeminiAPIKey, "blank values are ignored")
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 40*time.Second, cfg.Budget.Std())
	assert.Equal(t, 20*time.Second, cfg.StageTimeout.Std())
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.True(t, cfg.SingleDetailCall)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"batch size":  {"PLAN_BATCH_SIZE": "three"},
		"budget":      {"PLAN_BUDGET": "later"},
		"single call": {"PLAN_SINGLE_DETAIL_CALL": "maybe"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := &Config{}
			assert.Error(t, cfg.ApplyEnv(envMap(env)))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.LLMProvider = "claude" }, "unknown llm_provider"},
		{"negative batch size", func(c *Config) { c.BatchSize = -1 }, "batch_size"},
		{"stage timeout over budget", func(c *Config) { c.StageTimeout = Duration(time.Minute) }, "stage_timeout"},
		{"postgres without url", func(c *Config) { c.StoreBackend = StorePostgres }, "database_url"},
		{"redis without url", func(c *Config) { c.StoreBackend = StoreRedis }, "redis_url"},
		{"unknown store", func(c *Config) { c.StoreBackend = "s3" }, "unknown store_backend"},
		{"unknown tier", func(c *Config) { c.Models = map[string]string{"huge": "m"} }, "unknown model tier"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{BatchSize: 6, GeminiAPIKey: "key"}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 6, merged.BatchSize)
	assert.Equal(t, "key", merged.GeminiAPIKey)
	assert.Equal(t, "gemini", merged.LLMProvider)
	assert.Equal(t, 55*time.Second, merged.Budget.Std())
	assert.Equal(t, 45*time.Second, merged.StageTimeout.Std())
	assert.Equal(t, 3, merged.MaxAttempts)
	assert.Equal(t, StoreMemory, merged.StoreBackend)
	assert.Equal(t, 8080, merged.Port)

	// the receiver is not modified
	assert.Zero(t, cfg.Port)
}

func TestLoad_FileEnvAndDefaults(t *testing.T) {
	path := writeConfig(t, `{"batch_size": 2, "port": 9090}`)
	t.Setenv("PLAN_BATCH_SIZE", "4")
	t.Setenv("GEMINI_API_KEY", "gk")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.BatchSize, "environment overrides the file")
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "gk", cfg.APIKey())
	assert.Equal(t, 55*time.Second, cfg.Budget.Std())
}

func TestLLMConfig(t *testing.T) {
	cfg := Defaults()
	cfg.LLMProvider = "openai"
	cfg.Models = map[string]string{"advanced": "gpt-4.1"}
	cfg.Temperature = 0.2

	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "gpt-4.1", lc.GetModel(llm.TierAdvanced))
	assert.NotEmpty(t, lc.GetModel(llm.TierLite))
	assert.InDelta(t, 0.2, lc.Temperature, 1e-6)
}

func TestNewLLMClient_RequiresKey(t *testing.T) {
	cfg := Defaults()
	_, err := cfg.NewLLMClient(context.Background())
	assert.ErrorContains(t, err, "API key")

	cfg.LLMProvider = "openai"
	cfg.OpenAIAPIKey = "sk"
	cfg.OpenAIBaseURL = "http://localhost:1234/v1"
	client, err := cfg.NewLLMClient(context.Background())
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

func TestDuration_MarshalJSON(t *testing.T) {
	data, err := Duration(90 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(data))
}
