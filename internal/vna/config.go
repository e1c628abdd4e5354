package vna

import (
	"fmt"
	"math"
)

// PortConfig holds optional stimulus settings for one test port
type PortConfig struct {
	Port       int      `yaml:"port" json:"port"`
	Power      *float64 `yaml:"power" json:"power"`           // dBm
	PowerSlope *float64 `yaml:"powerSlope" json:"powerSlope"` // dB/GHz
	Attenuator *float64 `yaml:"attenuator" json:"attenuator"` // dB
	Extension  *float64 `yaml:"extension" json:"extension"`   // s
}

// SweepConfig describes the measurement set-up to apply to a Device. Unset
// fields leave the instrument as it is.
type SweepConfig struct {
	SetUp       SetUpMode    `yaml:"setUp" json:"setUp"`
	Mode        *SweepMode   `yaml:"mode" json:"mode"`
	Start       *float64     `yaml:"start" json:"start"`   // Hz
	Stop        *float64     `yaml:"stop" json:"stop"`     // Hz
	Center      *float64     `yaml:"center" json:"center"` // Hz
	Span        *float64     `yaml:"span" json:"span"`     // Hz
	CW          *float64     `yaml:"cw" json:"cw"`         // Hz
	Points      *int         `yaml:"points" json:"points"`
	IFBandwidth *float64     `yaml:"ifBandwidth" json:"ifBandwidth"` // Hz
	Average     *int         `yaml:"average" json:"average"`
	Z0          *float64     `yaml:"z0" json:"z0"` // ohm
	Output      *bool        `yaml:"output" json:"output"`
	Segments    []Segment    `yaml:"segments" json:"segments"`
	Ports       []PortConfig `yaml:"ports" json:"ports"`
}

func (c *SweepConfig) Validate() error {
	if c.Start != nil && c.Stop != nil && *c.Stop < *c.Start {
		return fmt.Errorf("vna.SweepConfig: stop must not be below start: %g < %g", *c.Stop, *c.Start)
	}
	if (c.Start != nil || c.Stop != nil) && (c.Center != nil || c.Span != nil) {
		return fmt.Errorf("vna.SweepConfig: start/stop and center/span are mutually exclusive")
	}
	if c.Points != nil && *c.Points < 1 {
		return fmt.Errorf("vna.SweepConfig: points must be positive: %d", *c.Points)
	}
	if c.Average != nil && *c.Average < 0 {
		return fmt.Errorf("vna.SweepConfig: average must not be negative: %d", *c.Average)
	}
	if c.Z0 != nil && *c.Z0 <= 0 {
		return fmt.Errorf("vna.SweepConfig: z0 must be positive: %g", *c.Z0)
	}
	for i, s := range c.Segments {
		if s.Stop < s.Start || s.Step < 0 || (s.Stop > s.Start && s.Step == 0) {
			return fmt.Errorf("vna.SweepConfig: invalid segment %d: %+v", i+1, s)
		}
	}
	if c.Mode != nil && *c.Mode == SegmentSweep && len(c.Segments) == 0 {
		return fmt.Errorf("vna.SweepConfig: segment sweep requires segments")
	}
	for _, p := range c.Ports {
		if p.Port < 1 {
			return fmt.Errorf("vna.SweepConfig: invalid port: %d", p.Port)
		}
	}
	return nil
}

// Apply writes the configuration to d. The segment table is written before
// the sweep mode so that switching to a segment sweep uses it.
func (c *SweepConfig) Apply(d Device) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.SetUp != SetUpUnknown {
		if err := d.SetUp(c.SetUp); err != nil {
			return fmt.Errorf("set-up %s: %w", c.SetUp, err)
		}
	}
	if len(c.Segments) > 0 {
		if err := d.SetSegmentTable(c.Segments); err != nil {
			return fmt.Errorf("segment table: %w", err)
		}
	}
	if c.Mode != nil {
		if err := d.SetSweepMode(*c.Mode); err != nil {
			return fmt.Errorf("sweep mode %s: %w", *c.Mode, err)
		}
	}

	floats := []struct {
		name string
		v    *float64
		set  func(float64) error
	}{
		{"frequency start", c.Start, d.SetFrequencyStart},
		{"frequency stop", c.Stop, d.SetFrequencyStop},
		{"frequency center", c.Center, d.SetFrequencyCenter},
		{"frequency span", c.Span, d.SetFrequencySpan},
		{"frequency CW", c.CW, d.SetFrequencyCW},
		{"IF bandwidth", c.IFBandwidth, d.SetIFBandwidth},
		{"Z0", c.Z0, d.SetZ0},
	}
	for _, f := range floats {
		if f.v == nil {
			continue
		}
		if err := f.set(*f.v); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	if c.Points != nil {
		if err := d.SetSweepPoints(*c.Points); err != nil {
			return fmt.Errorf("sweep points: %w", err)
		}
	}
	if c.Average != nil {
		if err := d.SetIFAverageFactor(*c.Average); err != nil {
			return fmt.Errorf("IF average factor: %w", err)
		}
	}
	if c.Output != nil {
		if err := d.SetOutputState(*c.Output); err != nil {
			return fmt.Errorf("output state: %w", err)
		}
	}

	ports := make([]SourcePortSettings, len(c.Ports))
	for i, p := range c.Ports {
		ports[i] = SourcePortSettings{
			Port:       p.Port,
			Power:      optional(p.Power),
			PowerSlope: optional(p.PowerSlope),
			Attenuator: optional(p.Attenuator),
			Extension:  optional(p.Extension),
		}
	}
	return ApplySourcePorts(d, ports)
}

func optional(v *float64) Reading {
	if v == nil {
		return Reading(math.NaN())
	}
	return Reading(*v)
}
