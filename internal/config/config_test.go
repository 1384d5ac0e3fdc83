package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "USD", cfg.Engine.DefaultCurrency)
	assert.Equal(t, time.Hour, cfg.Engine.TickInterval)
	assert.Equal(t, 0.6, cfg.Matching.MinConfidence)
	assert.Equal(t, 0.95, cfg.Matching.AutoConfirmThreshold)
	assert.Equal(t, 50, cfg.Matching.ScanLimit)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
log:
  level: debug
  format: json
matching:
  min_confidence: 0.5
  auto_confirm_threshold: 0.9
  scan_limit: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 0.5, cfg.Matching.MinConfidence)
	assert.Equal(t, 0.9, cfg.Matching.AutoConfirmThreshold)
	assert.Equal(t, 20, cfg.Matching.ScanLimit)
	// Untouched keys keep their defaults.
	assert.Equal(t, "USD", cfg.Engine.DefaultCurrency)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("threshold out of range", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.AutoConfirmThreshold = 1.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("threshold below min confidence", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.AutoConfirmThreshold = 0.4
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive scan limit", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.ScanLimit = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive tick interval", func(t *testing.T) {
		cfg := valid()
		cfg.Engine.TickInterval = 0
		assert.Error(t, cfg.Validate())
	})
}
