package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/colecs/ecs/ecslog/slogadapter"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg, err := parseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
duration: 2s
entities: 500
components: 32
systems: 4
churn_rate: 0.5
profile: cpu
log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Duration)
	assert.Equal(t, 500, cfg.Entities)
	assert.Equal(t, 32, cfg.Components)
	assert.Equal(t, 4, cfg.Systems)
	assert.Equal(t, 0.5, cfg.ChurnRate)
	assert.Equal(t, "cpu", cfg.Profile)
	assert.Equal(t, DefaultConfig().ComponentsPerSystem, cfg.ComponentsPerSystem, "unset keys keep their defaults")

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "entitys: 5\n"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := writeConfig(t, "entities: 500\nsystems: 4\n")

	cfg, err := parseConfig([]string{"-config", path, "-entities", "7", "-log-level", "trace"})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Entities)
	assert.Equal(t, 4, cfg.Systems, "flags left unset do not clobber the file")

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slogadapter.LevelTrace, level)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero duration":        func(c *Config) { c.Duration = 0 },
		"no components":        func(c *Config) { c.Components = 0 },
		"too wide systems":     func(c *Config) { c.ComponentsPerSystem = c.Components + 1 },
		"no room per entity":   func(c *Config) { c.MaxComponentsPerEntity = 0 },
		"churn above one":      func(c *Config) { c.ChurnRate = 1.5 },
		"unknown profile mode": func(c *Config) { c.Profile = "gpu" },
		"unknown log level":    func(c *Config) { c.LogLevel = "loud" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
