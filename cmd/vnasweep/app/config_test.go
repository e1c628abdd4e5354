package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

const testConfig = `
settings:
  logLevel: debug
instrument:
  model: 360B
  title: "Bench 2"
  gpib:
    port: /dev/ttyUSB0
    address: 6
    pollInterval: 50ms
measurement:
  preset: true
  format: raw
  sweeps: 10
  interval: 30s
  sweep:
    setUp: Sxx
    mode: segment
    points: 201
    segments:
      - start: 1.0e9
        stop: 2.0e9
        step: 5.0e6
    ports:
      - port: 1
        power: -10
storage:
  dataDirectory: /var/lib/vna
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if c.Settings.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug log level, got %s", c.Settings.LogLevel)
	}
	if c.Instrument.Model != Model360B || c.Instrument.Title != "Bench 2" {
		t.Errorf("Unexpected instrument %+v", c.Instrument)
	}
	if c.Instrument.GPIB.Address != 6 || c.Instrument.GPIB.PollInterval.Duration() != 50*time.Millisecond {
		t.Errorf("Unexpected GPIB config %+v", c.Instrument.GPIB)
	}

	m := c.Measurement
	if f, _ := m.format(); f != vna.FormatRaw {
		t.Errorf("Expected raw format, got %s", f)
	}
	if m.Sweeps != 10 || m.Interval.Duration() != 30*time.Second {
		t.Errorf("Expected 10 sweeps every 30s, got %d every %s", m.Sweeps, m.Interval)
	}
	if m.Sweep.SetUp != vna.SetUpSxx {
		t.Errorf("Expected Sxx, got %s", m.Sweep.SetUp)
	}
	if m.Sweep.Mode == nil || *m.Sweep.Mode != vna.SegmentSweep {
		t.Errorf("Expected segment sweep mode, got %v", m.Sweep.Mode)
	}
	if len(m.Sweep.Segments) != 1 || m.Sweep.Segments[0].Points() != 201 {
		t.Errorf("Unexpected segments %+v", m.Sweep.Segments)
	}
	if len(m.Sweep.Ports) != 1 || *m.Sweep.Ports[0].Power != -10 {
		t.Errorf("Unexpected ports %+v", m.Sweep.Ports)
	}
	if c.Storage.DataDirectory != "/var/lib/vna" {
		t.Errorf("Unexpected data directory %q", c.Storage.DataDirectory)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Instrument: InstrumentConfig{Model: Model360},
		}
	}

	tests := []struct {
		name   string
		modify func(c *Config)
		fail   bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown model", func(c *Config) { c.Instrument.Model = "37369" }, true},
		{"title on 360", func(c *Config) { c.Instrument.Title = "Bench" }, true},
		{"no port", func(c *Config) { c.Instrument.GPIB.Port = "" }, true},
		{"bad format", func(c *Config) { c.Measurement.Format = "polar" }, true},
		{"negative sweeps", func(c *Config) { c.Measurement.Sweeps = -1 }, true},
		{"negative interval", func(c *Config) { c.Measurement.Interval = vna.NewTimeDuration(-time.Second) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			c.Instrument.GPIB.Port = "/dev/ttyUSB0"
			tt.modify(&c)

			err := c.Validate()
			if tt.fail && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.fail && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "instrument:\n  model: 8510\n")); err == nil {
		t.Error("Expected error for unknown model")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
