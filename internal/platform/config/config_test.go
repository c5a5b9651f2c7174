package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"ROUNDWISE_ADDR", "AUTOSAVE_INTERVAL", "NONCOMPLIANCE_THRESHOLD", "KAFKA_BROKERS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Evaluation.AutosaveInterval)
	assert.Equal(t, 50, cfg.Evaluation.Threshold)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ROUNDWISE_ADDR", ":9090")
	t.Setenv("AUTOSAVE_INTERVAL", "5s")
	t.Setenv("NONCOMPLIANCE_THRESHOLD", "80")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Evaluation.AutosaveInterval)
	assert.Equal(t, 80, cfg.Evaluation.Threshold)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestFromEnv_ReportsEveryInvalidValue(t *testing.T) {
	t.Setenv("AUTOSAVE_INTERVAL", "soon")
	t.Setenv("REDIS_POOL_SIZE", "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTOSAVE_INTERVAL")
	assert.Contains(t, err.Error(), "REDIS_POOL_SIZE")
}

func TestFromEnv_ValidatesRanges(t *testing.T) {
	t.Setenv("NONCOMPLIANCE_THRESHOLD", "120")
	t.Setenv("SAVE_TIMEOUT", "0s")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NONCOMPLIANCE_THRESHOLD")
	assert.Contains(t, err.Error(), "SAVE_TIMEOUT")
}

func TestLoad_ReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ROUNDWISE_TEST_DOTENV=from-file\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { _ = os.Unsetenv("ROUNDWISE_TEST_DOTENV") })

	cfg, err := Load(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, "from-file", os.Getenv("ROUNDWISE_TEST_DOTENV"))
}
