package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIKey, EnvLegacyAPIKey, EnvModel, EnvAddr} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-3-pro-preview", cfg.Gemini.Model)
	assert.InDelta(t, 0.1, cfg.Gemini.Temperature, 1e-6)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(200<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 10*time.Minute, cfg.Server.AnalysisTimeout.Std())
	assert.Equal(t, 50, cfg.Server.MaxAnalyses)
	assert.Equal(t, int64(50<<20), cfg.Loader.MaxFileBytes)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce.Std())
	assert.Equal(t, "./reports", cfg.Watch.OutputDir)
	assert.Equal(t, []string{"json", "md"}, cfg.Watch.Formats)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Gemini.APIKey)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
gemini:
  api_key: from-file
  model: gemini-2.5-pro
  base_url: http://localhost:9999
  temperature: 0.4
  timeout: 90s
server:
  addr: 127.0.0.1:9000
  analysis_timeout: 3m
  max_analyses: 5
watch:
  debounce: 500ms
  formats: [html, csv]
logging:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, "http://localhost:9999", cfg.Gemini.BaseURL)
	assert.InDelta(t, 0.4, cfg.Gemini.Temperature, 1e-6)
	assert.Equal(t, 90*time.Second, cfg.Gemini.Timeout.Std())
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Minute, cfg.Server.AnalysisTimeout.Std())
	assert.Equal(t, 5, cfg.Server.MaxAnalyses)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce.Std())
	assert.Equal(t, []string{"html", "csv"}, cfg.Watch.Formats)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "gemini:\n  api_key: from-file\n  model: from-file\n")

	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvModel, "gemini-env")
	t.Setenv(EnvAddr, ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-env", cfg.Gemini.Model)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoad_LegacyKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLegacyAPIKey, "legacy")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Gemini.APIKey)

	// the file wins over the legacy variable
	cfg, err = Load(writeConfig(t, "gemini:\n  api_key: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Gemini.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "server:\n  analysis_timeout: soon\n"))
	assert.ErrorContains(t, err, "invalid duration")

	_, err = Load(writeConfig(t, "gemini: [unclosed\n"))
	assert.Error(t, err)
}

func TestDuration_MarshalYAML(t *testing.T) {
	v, err := Duration(1500 * time.Millisecond).MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", v)
}
