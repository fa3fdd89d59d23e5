package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ResultsDir != "results" {
		t.Errorf("ResultsDir = %q, want results", cfg.ResultsDir)
	}
	if cfg.Dataset.Last != -1 {
		t.Errorf("Dataset.Last = %d, want -1", cfg.Dataset.Last)
	}
	sweep, err := cfg.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds() error = %v", err)
	}
	if sweep.Len() != 9 {
		t.Errorf("default sweep has %d thresholds, want 9", sweep.Len())
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STDESC_RESULTS_DIR", "/tmp/out")
	t.Setenv("STDESC_LOG_LEVEL", "debug")
	t.Setenv("STDESC_THRESHOLDS", "0.3,0.6")
	t.Setenv("STDESC_MATCHER_TIMEOUT", "5s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ResultsDir != "/tmp/out" {
		t.Errorf("ResultsDir = %q, want /tmp/out", cfg.ResultsDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Matcher.Timeout != 5*time.Second {
		t.Errorf("Matcher.Timeout = %v, want 5s", cfg.Matcher.Timeout)
	}
	sweep, err := cfg.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds() error = %v", err)
	}
	if got := sweep.Thresholds(); len(got) != 2 || got[0] != 0.3 || got[1] != 0.6 {
		t.Errorf("thresholds = %v, want [0.3 0.6]", got)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdesc.yaml")
	content := `
results_dir: out
dataset:
  path: /data/kitti/00
  first: 10
  last: 500
sweep:
  min: 0.2
  max: 0.6
  step: 0.2
matcher:
  replay: detections.txt
  timeout: 2m
log:
  format: json
history:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dataset.Path != "/data/kitti/00" || cfg.Dataset.First != 10 || cfg.Dataset.Last != 500 {
		t.Errorf("Dataset = %+v", cfg.Dataset)
	}
	if cfg.Matcher.Replay != "detections.txt" || cfg.Matcher.Timeout != 2*time.Minute {
		t.Errorf("Matcher = %+v", cfg.Matcher)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}

	sweep, err := cfg.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds() error = %v", err)
	}
	if got := sweep.Thresholds(); len(got) != 2 || got[0] != 0.2 || got[1] != 0.4 {
		t.Errorf("thresholds = %v, want [0.2 0.4]", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty results dir", func(c *Config) { c.ResultsDir = "" }, "results_dir"},
		{"negative first", func(c *Config) { c.Dataset.First = -1 }, "dataset.first"},
		{"last before first", func(c *Config) { c.Dataset.First = 5; c.Dataset.Last = 2 }, "dataset.last"},
		{"bad step", func(c *Config) { c.Sweep.Step = 0 }, "invalid sweep"},
		{"duplicate thresholds", func(c *Config) { c.Sweep.Thresholds = []float64{0.5, 0.5} }, "invalid sweep"},
		{"both matchers", func(c *Config) { c.Matcher.Address = "x:1"; c.Matcher.Replay = "log" }, "mutually exclusive"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"sequence with separator", func(c *Config) { c.Dataset.Sequence = "../x" }, "dataset.sequence"},
		{"dot sequence", func(c *Config) { c.Dataset.Sequence = "." }, "dataset.sequence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := Default()
	cfg.ResultsDir = filepath.Join("data", "out")
	if got, want := cfg.HistoryPath(), filepath.Join("data", "out", HistoryFile); got != want {
		t.Errorf("HistoryPath() = %q, want %q", got, want)
	}

	cfg.History.Path = "/var/lib/stdesc/runs.db"
	if got := cfg.HistoryPath(); got != "/var/lib/stdesc/runs.db" {
		t.Errorf("HistoryPath() = %q, want explicit path", got)
	}
}
