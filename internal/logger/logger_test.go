package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return FromZap(zap.New(core)), logs
}

func TestLogger_RedactsSecretKeys(t *testing.T) {
	log, logs := observed()

	log.Info("calling provider", "api_key", "sk-123", "Authorization", "Bearer x", "stage", "blueprint")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["api_key"])
	assert.Equal(t, "[REDACTED]", fields["Authorization"])
	assert.Equal(t, "blueprint", fields["stage"])
}

func TestLogger_HashesUserIDs(t *testing.T) {
	log, logs := observed()

	log.Warn("plan stored", "user_id", "user-42")

	fields := logs.All()[0].ContextMap()
	hashed, ok := fields["user_id"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "user-42", hashed)
	assert.Contains(t, hashed, "hash:")
}

func TestLogger_WithCarriesFields(t *testing.T) {
	log, logs := observed()

	log.With("request_id", "abc").Debug("hello", "n", 3)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "abc", fields["request_id"])
	assert.EqualValues(t, 3, fields["n"])
}

func TestLogger_WithoutRedaction(t *testing.T) {
	log, logs := observed()

	log.WithoutRedaction().Error("debugging", "token", "t-1")

	assert.Equal(t, "t-1", logs.All()[0].ContextMap()["token"])
}

func TestLogger_OddKeyValues(t *testing.T) {
	log, logs := observed()

	assert.NotPanics(t, func() { log.Info("odd", "a", 1, "dangling") })
	assert.NotZero(t, logs.FilterMessage("odd").Len())
}

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "production"} {
		log, err := New(mode)
		require.NoError(t, err)
		require.NotNil(t, log)
	}
	assert.NotNil(t, NewNop())
}
