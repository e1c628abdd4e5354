package vna

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Reading is a numeric property value. Properties the model cannot read
// back are NaN and encode as JSON null.
type Reading float64

func (r Reading) Valid() bool {
	return !math.IsNaN(float64(r))
}

func (r Reading) MarshalJSON() ([]byte, error) {
	v := float64(r)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func (r *Reading) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Reading(math.NaN())
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Reading(v)
	return nil
}

// SourcePortSettings are the stimulus settings of one test port
type SourcePortSettings struct {
	Port       int     `json:"port"`
	Power      Reading `json:"power"`      // dBm
	PowerSlope Reading `json:"powerSlope"` // dB/GHz
	Attenuator Reading `json:"attenuator"` // dB
	Extension  Reading `json:"extension"`  // s
}

// Settings is a snapshot of the instrument configuration
type Settings struct {
	Identification  string               `json:"identification"`
	SweepMode       SweepMode            `json:"sweepMode"`
	SetUpMode       SetUpMode            `json:"setUpMode"`
	Parameters      []string             `json:"parameters"`
	SweepPoints     int                  `json:"sweepPoints"`
	SweepTime       Reading              `json:"sweepTime"`
	DwellTime       Reading              `json:"dwellTime"`
	IFBandwidth     Reading              `json:"ifBandwidth"`
	IFAverageFactor int                  `json:"ifAverageFactor"`
	FrequencyStart  Reading              `json:"frequencyStart"`
	FrequencyStop   Reading              `json:"frequencyStop"`
	FrequencyCenter Reading              `json:"frequencyCenter"`
	FrequencySpan   Reading              `json:"frequencySpan"`
	FrequencyCW     Reading              `json:"frequencyCW"`
	Z0              Reading              `json:"z0"`
	OutputState     bool                 `json:"outputState"`
	Segments        []Segment            `json:"segments,omitempty"`
	Ports           []SourcePortSettings `json:"ports"`
}

// ReadSettings reads the configuration of d. Operations d does not support
// are left at their zero value.
func ReadSettings(d Device) (*Settings, error) {
	s := Settings{
		Identification: d.Identification(),
		SetUpMode:      d.SetUpMode(),
		Parameters:     names(d.Parameters()),
	}

	var err error
	if s.SweepMode, err = d.SweepMode(); err != nil {
		return nil, fmt.Errorf("sweep mode: %w", err)
	}
	if s.SweepPoints, err = d.SweepPoints(); err != nil {
		return nil, fmt.Errorf("sweep points: %w", err)
	}
	if s.IFAverageFactor, err = d.IFAverageFactor(); err != nil {
		return nil, fmt.Errorf("IF average factor: %w", err)
	}
	if s.OutputState, err = d.OutputState(); err != nil {
		return nil, fmt.Errorf("output state: %w", err)
	}

	readings := []struct {
		name string
		dst  *Reading
		get  func() (float64, error)
	}{
		{"sweep time", &s.SweepTime, d.SweepTime},
		{"dwell time", &s.DwellTime, d.DwellTime},
		{"IF bandwidth", &s.IFBandwidth, d.IFBandwidth},
		{"frequency start", &s.FrequencyStart, d.FrequencyStart},
		{"frequency stop", &s.FrequencyStop, d.FrequencyStop},
		{"frequency center", &s.FrequencyCenter, d.FrequencyCenter},
		{"frequency span", &s.FrequencySpan, d.FrequencySpan},
		{"frequency CW", &s.FrequencyCW, d.FrequencyCW},
		{"Z0", &s.Z0, d.Z0},
	}
	for _, r := range readings {
		if err = readInto(r.dst, r.get); err != nil {
			return nil, fmt.Errorf("%s: %w", r.name, err)
		}
	}

	if s.SweepMode == SegmentSweep {
		if s.Segments, err = d.SegmentTable(); err != nil && !errors.Is(err, ErrUnsupported) {
			return nil, fmt.Errorf("segment table: %w", err)
		}
	}

	if s.Ports, err = SourcePorts(d); err != nil {
		return nil, err
	}

	return &s, nil
}

// SourcePorts reads the per-port stimulus settings of d
func SourcePorts(d Device) ([]SourcePortSettings, error) {
	accessors := sourcePortAccessors(d)
	ports := make([]SourcePortSettings, 0, len(accessors))

	for i, a := range accessors {
		p := SourcePortSettings{Port: i + 1}
		for _, r := range []struct {
			name string
			dst  *Reading
			get  func() (float64, error)
		}{
			{"power", &p.Power, a.power},
			{"power slope", &p.PowerSlope, a.slope},
			{"attenuator", &p.Attenuator, a.attenuator},
			{"extension", &p.Extension, a.extension},
		} {
			if err := readInto(r.dst, r.get); err != nil {
				return nil, fmt.Errorf("port %d %s: %w", p.Port, r.name, err)
			}
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// ApplySourcePorts writes the valid readings of ports to d
func ApplySourcePorts(d Device, ports []SourcePortSettings) error {
	accessors := sourcePortAccessors(d)

	for _, p := range ports {
		if p.Port < 1 || p.Port > len(accessors) {
			return fmt.Errorf("vna.SourcePortSettings: no test port %d", p.Port)
		}
		a := accessors[p.Port-1]
		for _, w := range []struct {
			name string
			v    Reading
			set  func(float64) error
		}{
			{"power", p.Power, a.setPower},
			{"power slope", p.PowerSlope, a.setSlope},
			{"attenuator", p.Attenuator, a.setAttenuator},
			{"extension", p.Extension, a.setExtension},
		} {
			if !w.v.Valid() {
				continue
			}
			if err := w.set(float64(w.v)); err != nil {
				return fmt.Errorf("port %d %s: %w", p.Port, w.name, err)
			}
		}
	}
	return nil
}

type sourcePortAccessor struct {
	power, slope, attenuator, extension             func() (float64, error)
	setPower, setSlope, setAttenuator, setExtension func(float64) error
}

func sourcePortAccessors(d Device) []sourcePortAccessor {
	return []sourcePortAccessor{
		{
			power: d.Source1Power, slope: d.Source1PowerSlope,
			attenuator: d.Port1Attenuator, extension: d.Port1Extension,
			setPower: d.SetSource1Power, setSlope: d.SetSource1PowerSlope,
			setAttenuator: d.SetPort1Attenuator, setExtension: d.SetPort1Extension,
		},
		{
			power: d.Source2Power, slope: d.Source2PowerSlope,
			attenuator: d.Port2Attenuator, extension: d.Port2Extension,
			setPower: d.SetSource2Power, setSlope: d.SetSource2PowerSlope,
			setAttenuator: d.SetPort2Attenuator, setExtension: d.SetPort2Extension,
		},
	}[:min(d.NTestPorts(), 2)]
}

func readInto(dst *Reading, get func() (float64, error)) error {
	v, err := get()
	if errors.Is(err, ErrUnsupported) {
		*dst = Reading(math.NaN())
		return nil
	}
	if err != nil {
		return err
	}
	*dst = Reading(v)
	return nil
}
