package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "canvass", cfg.MongoDatabase)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, 10000, cfg.AI.TimeoutMS)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvass.yaml")
	content := `
port: "9000"
mongo_database: surveys
ai:
  timeout_ms: 2500
  models:
    generate: gemini-test
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "surveys", cfg.MongoDatabase)
	assert.Equal(t, 2500, cfg.AI.TimeoutMS)
	assert.Equal(t, "gemini-test", cfg.AI.Models.Generate)
	// Untouched values keep their defaults
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.NotEmpty(t, cfg.AI.Models.Validate)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not, a, string"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\n"), 0o644))

	t.Setenv("PORT", "7777")
	t.Setenv("REDIS_URI", "redis://cache:6380")
	t.Setenv("GEMINI_RPM", "120")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7777", cfg.Port)
	assert.Equal(t, "cache:6380", cfg.RedisAddr, "redis scheme prefix is stripped")
	assert.Equal(t, 120, cfg.AI.RequestsPerMinute)
}
