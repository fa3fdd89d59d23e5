// Package config loads stdesc-eval configuration from defaults, an optional
// YAML file and STDESC_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/go-stdesc/evaluation"
	"github.com/jamesainslie/go-stdesc/report"
)

// Config holds all application configuration.
type Config struct {
	// ResultsDir is the root under which stdesc_results/ is created.
	ResultsDir string `envconfig:"STDESC_RESULTS_DIR" yaml:"results_dir"`

	Dataset DatasetConfig `yaml:"dataset"`
	Sweep   SweepConfig   `yaml:"sweep"`
	Matcher MatcherConfig `yaml:"matcher"`
	Log     LogConfig     `yaml:"log"`
	History HistoryConfig `yaml:"history"`
}

// DatasetConfig selects the scan sequence.
type DatasetConfig struct {
	Path        string `envconfig:"STDESC_DATASET_PATH" yaml:"path"`
	Sequence    string `envconfig:"STDESC_SEQUENCE" yaml:"sequence"`
	GroundTruth string `envconfig:"STDESC_GROUND_TRUTH" yaml:"ground_truth"`
	First       int    `envconfig:"STDESC_FIRST_SCAN" yaml:"first"`
	Last        int    `envconfig:"STDESC_LAST_SCAN" yaml:"last"` // -1 = all scans
}

// SweepConfig defines the confidence thresholds. Explicit thresholds take
// precedence over the range.
type SweepConfig struct {
	Min        float64   `envconfig:"STDESC_SWEEP_MIN" yaml:"min"`
	Max        float64   `envconfig:"STDESC_SWEEP_MAX" yaml:"max"`
	Step       float64   `envconfig:"STDESC_SWEEP_STEP" yaml:"step"`
	Thresholds []float64 `envconfig:"STDESC_THRESHOLDS" yaml:"thresholds"`
}

// MatcherConfig selects the detector. Exactly one of Address and Replay
// must be set.
type MatcherConfig struct {
	Address    string        `envconfig:"STDESC_MATCHER_ADDR" yaml:"address"`
	Replay     string        `envconfig:"STDESC_MATCHER_REPLAY" yaml:"replay"`
	ParamsFile string        `envconfig:"STDESC_MATCHER_PARAMS" yaml:"params_file"`
	Timeout    time.Duration `envconfig:"STDESC_MATCHER_TIMEOUT" yaml:"timeout"`
	Record     string        `envconfig:"STDESC_MATCHER_RECORD" yaml:"record"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"STDESC_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"STDESC_LOG_FORMAT" yaml:"format"`
}

// HistoryFile names the default history database under the results root.
const HistoryFile = "history.db"

// HistoryConfig controls the run history database. An empty Path means
// HistoryFile under the results root.
type HistoryConfig struct {
	Enabled bool   `envconfig:"STDESC_HISTORY_ENABLED" yaml:"enabled"`
	Path    string `envconfig:"STDESC_HISTORY_PATH" yaml:"path"`
}

// Load loads configuration from the optional file at configPath and the
// environment, then validates it.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ResultsDir: "results",
		Dataset: DatasetConfig{
			First: 0,
			Last:  -1,
		},
		Sweep: SweepConfig{
			Min:  evaluation.DefaultSweepMin,
			Max:  evaluation.DefaultSweepMax,
			Step: evaluation.DefaultSweepStep,
		},
		Matcher: MatcherConfig{
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []string

	if c.ResultsDir == "" {
		errs = append(errs, "results_dir must be set")
	}

	if c.Dataset.First < 0 {
		errs = append(errs, "dataset.first must not be negative")
	}
	if c.Dataset.Last >= 0 && c.Dataset.Last < c.Dataset.First {
		errs = append(errs, "dataset.last must not be below dataset.first")
	}

	if _, err := c.Thresholds(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid sweep: %v", err))
	}

	if c.Matcher.Address != "" && c.Matcher.Replay != "" {
		errs = append(errs, "matcher.address and matcher.replay are mutually exclusive")
	}
	if c.Matcher.Timeout < 0 {
		errs = append(errs, "matcher.timeout must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if c.Dataset.Sequence != "" {
		if err := report.ValidateSequenceID(c.Dataset.Sequence); err != nil {
			errs = append(errs, fmt.Sprintf("dataset.sequence: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Thresholds builds the evaluation sweep.
func (c *Config) Thresholds() (evaluation.Sweep, error) {
	if len(c.Sweep.Thresholds) > 0 {
		return evaluation.NewSweep(c.Sweep.Thresholds)
	}
	return evaluation.SweepRange(c.Sweep.Min, c.Sweep.Max, c.Sweep.Step)
}

// HistoryPath returns the history database path, following ResultsDir
// unless history.path is set.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.ResultsDir, HistoryFile)
}
