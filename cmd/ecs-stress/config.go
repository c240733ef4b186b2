package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plus3/colecs/ecs/ecslog/slogadapter"
)

// Config controls one stress run. Every field can come from the YAML file
// given with -config and be overridden by the matching flag.
type Config struct {
	Duration               time.Duration `yaml:"duration"`
	Entities               int           `yaml:"entities"`
	Components             int           `yaml:"components"`
	Systems                int           `yaml:"systems"`
	ComponentsPerSystem    int           `yaml:"components_per_system"`
	MaxComponentsPerEntity int           `yaml:"max_components_per_entity"`
	ChurnRate              float64       `yaml:"churn_rate"`
	Seed                   int64         `yaml:"seed"`
	Profile                string        `yaml:"profile"`
	ProfilePath            string        `yaml:"profile_path"`
	LogLevel               string        `yaml:"log_level"`
	GCPauseMetrics         bool          `yaml:"gc_pause_metrics"`
}

func DefaultConfig() Config {
	return Config{
		Duration:               10 * time.Second,
		Entities:               10000,
		Components:             250,
		Systems:                50,
		ComponentsPerSystem:    2,
		MaxComponentsPerEntity: 5,
		ChurnRate:              0.01,
		Seed:                   1,
		ProfilePath:            ".",
		LogLevel:               "info",
	}
}

// LoadConfig reads a YAML file over the defaults. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

var profileModes = map[string]bool{
	"": true, "cpu": true, "mem": true, "alloc": true, "block": true, "mutex": true, "trace": true,
}

func (c Config) Validate() error {
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("config: duration must be positive, got %s", c.Duration)
	case c.Entities < 0:
		return fmt.Errorf("config: entities must not be negative, got %d", c.Entities)
	case c.Components < 1:
		return fmt.Errorf("config: components must be at least 1, got %d", c.Components)
	case c.Systems < 0:
		return fmt.Errorf("config: systems must not be negative, got %d", c.Systems)
	case c.ComponentsPerSystem < 1 || c.ComponentsPerSystem > c.Components:
		return fmt.Errorf("config: components_per_system must be within [1, %d], got %d", c.Components, c.ComponentsPerSystem)
	case c.MaxComponentsPerEntity < 1 || c.MaxComponentsPerEntity > c.Components:
		return fmt.Errorf("config: max_components_per_entity must be within [1, %d], got %d", c.Components, c.MaxComponentsPerEntity)
	case c.ChurnRate < 0 || c.ChurnRate > 1:
		return fmt.Errorf("config: churn_rate must be within [0, 1], got %g", c.ChurnRate)
	case !profileModes[c.Profile]:
		return fmt.Errorf("config: unknown profile mode %q", c.Profile)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. "trace" maps below slog's debug level.
func (c Config) Level() (slog.Level, error) {
	if c.LogLevel == "trace" {
		return slogadapter.LevelTrace, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return level, nil
}

// parseConfig builds the run configuration from args. Values come from the
// defaults, then the -config file, then every flag set explicitly.
func parseConfig(args []string) (Config, error) {
	fs := flag.NewFlagSet("ecs-stress", flag.ContinueOnError)
	def := DefaultConfig()

	path := fs.String("config", "", "Path to a YAML config file.")
	duration := fs.Duration("duration", def.Duration, "The total duration the test should run for.")
	entities := fs.Int("entities", def.Entities, "The initial number of entities to create.")
	components := fs.Int("components", def.Components, "The number of generated components.")
	systems := fs.Int("systems", def.Systems, "The number of generated systems.")
	perSystem := fs.Int("components-per-system", def.ComponentsPerSystem, "Components each generated system queries.")
	perEntity := fs.Int("max-components", def.MaxComponentsPerEntity, "Upper bound of components per spawned entity.")
	churn := fs.Float64("churn", def.ChurnRate, "Fraction of entities restructured every step.")
	seed := fs.Int64("seed", def.Seed, "Random seed.")
	prof := fs.String("profile", def.Profile, "Profile mode: cpu, mem, alloc, block, mutex or trace.")
	profPath := fs.String("profile-path", def.ProfilePath, "Directory profiles are written to.")
	level := fs.String("log-level", def.LogLevel, "Log level: trace, debug, info, warn or error.")
	gcPause := fs.Bool("gc-pause-metrics", def.GCPauseMetrics, "Enable detailed GC pause metrics in the report.")

	if err := fs.Parse(args); err != nil {
		return def, err
	}

	cfg := def
	if *path != "" {
		loaded, err := LoadConfig(*path)
		if err != nil {
			return def, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Duration = *duration
		case "entities":
			cfg.Entities = *entities
		case "components":
			cfg.Components = *components
		case "systems":
			cfg.Systems = *systems
		case "components-per-system":
			cfg.ComponentsPerSystem = *perSystem
		case "max-components":
			cfg.MaxComponentsPerEntity = *perEntity
		case "churn":
			cfg.ChurnRate = *churn
		case "seed":
			cfg.Seed = *seed
		case "profile":
			cfg.Profile = *prof
		case "profile-path":
			cfg.ProfilePath = *profPath
		case "log-level":
			cfg.LogLevel = *level
		case "gc-pause-metrics":
			cfg.GCPauseMetrics = *gcPause
		}
	})

	return cfg, cfg.Validate()
}
