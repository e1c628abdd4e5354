package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roman-kulish/wiltron-vna/internal/gpib"
	"github.com/roman-kulish/wiltron-vna/internal/vna"
	"gopkg.in/yaml.v3"
)

const (
	Model360  Model = "360"
	Model360B Model = "360B"
)

// Model is the instrument model a driver is opened for
type Model string

var validModels = map[Model]struct{}{
	Model360:  {},
	Model360B: {},
}

// Config represents the main application configuration
type Config struct {
	Settings    Settings          `yaml:"settings" json:"-"`
	Instrument  InstrumentConfig  `yaml:"instrument" json:"instrument"`
	Measurement MeasurementConfig `yaml:"measurement" json:"measurement"`
	Storage     StorageConfig     `yaml:"storage" json:"-"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel"`
}

// InstrumentConfig selects the analyzer and how to reach it
type InstrumentConfig struct {
	Model Model       `yaml:"model" json:"model"`
	Title string      `yaml:"title" json:"title,omitempty"` // 360B display title
	GPIB  gpib.Config `yaml:"gpib" json:"gpib"`
}

// MeasurementConfig describes what is measured and how often
type MeasurementConfig struct {
	Preset   bool             `yaml:"preset" json:"preset"` // restore factory settings before applying the sweep
	Sweep    vna.SweepConfig  `yaml:"sweep" json:"sweep"`
	Format   string           `yaml:"format" json:"format"`     // raw or corrected (default: corrected)
	Sweeps   int              `yaml:"sweeps" json:"sweeps"`     // number of sweeps, 0 runs until interrupted
	Interval vna.TimeDuration `yaml:"interval" json:"interval"` // pause between sweeps
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// LoadConfig reads and validates the YAML configuration at path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err = yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if _, ok := validModels[c.Instrument.Model]; !ok {
		return fmt.Errorf("app.Config: unknown instrument model '%s'", c.Instrument.Model)
	}
	if c.Instrument.Title != "" && c.Instrument.Model != Model360B {
		return fmt.Errorf("app.Config: title is only supported by model %s", Model360B)
	}
	if err := c.Instrument.GPIB.Validate(); err != nil {
		return err
	}

	m := &c.Measurement
	if err := m.Sweep.Validate(); err != nil {
		return err
	}
	if _, err := m.format(); err != nil {
		return fmt.Errorf("app.Config: %w", err)
	}
	if m.Sweeps < 0 {
		return errors.New("app.Config: sweeps must not be negative")
	}
	if err := m.Interval.Validate(); err != nil {
		return fmt.Errorf("app.Config: invalid interval: %w", err)
	}
	return nil
}

func (m *MeasurementConfig) format() (vna.Format, error) {
	if m.Format == "" {
		return vna.FormatCorrected, nil
	}
	return vna.ParseFormat(m.Format)
}
