package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, 0.5, cfg.Training.Threshold)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
data:
  csv_path: /tmp/other.csv
  test_fraction: 0.3
training:
  seed: 7
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.csv", cfg.Data.CSVPath)
	assert.Equal(t, 0.3, cfg.Data.TestFraction)
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Unset keys keep their defaults.
	assert.Equal(t, 5, cfg.Training.Folds)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Data.CSVPath, cfg.Data.CSVPath)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ATTRITION_CSV_PATH", "/data/env.csv")
	t.Setenv("ATTRITION_PORT", "7070")
	t.Setenv("ATTRITION_SEED", "99")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/data/env.csv", cfg.Data.CSVPath)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, int64(99), cfg.Training.Seed)
}

func TestValidateRejectsBadValues(t *testing.T) {
	mutations := map[string]func(*Config){
		"empty csv path": func(c *Config) { c.Data.CSVPath = "" },
		"test fraction":  func(c *Config) { c.Data.TestFraction = 1.5 },
		"folds":          func(c *Config) { c.Training.Folds = 1 },
		"threshold":      func(c *Config) { c.Training.Threshold = 0 },
		"target ratio":   func(c *Config) { c.Training.TargetRatio = 2 },
		"cost ratio":     func(c *Config) { c.Training.CostRatio = -1 },
		"port":           func(c *Config) { c.Server.Port = 0 },
	}
	for name, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestLoadConfigRejectsGarbledYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [not: closed"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
