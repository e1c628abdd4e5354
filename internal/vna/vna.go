package vna

import (
	"fmt"
	"math"
	"strings"
)

const (
	LinearFrequency SweepMode = iota
	LogFrequency
	SegmentSweep
	CWTime
)

// SweepMode is the frequency sweep type of the analyzer
type SweepMode int

func (m SweepMode) String() string {
	switch m {
	case LinearFrequency:
		return "LinearFrequency"
	case LogFrequency:
		return "LogFrequency"
	case SegmentSweep:
		return "SegmentSweep"
	case CWTime:
		return "CWTime"
	default:
		return fmt.Sprintf("SweepMode(%d)", int(m))
	}
}

var sweepModes = map[string]SweepMode{
	"linearfrequency": LinearFrequency,
	"linear":          LinearFrequency,
	"logfrequency":    LogFrequency,
	"log":             LogFrequency,
	"segmentsweep":    SegmentSweep,
	"segment":         SegmentSweep,
	"cwtime":          CWTime,
	"cw":              CWTime,
}

// ParseSweepMode parses a sweep mode name, case-insensitive
func ParseSweepMode(s string) (SweepMode, error) {
	if m, ok := sweepModes[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("vna.SweepMode: unknown sweep mode: %q", s)
}

func (m SweepMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SweepMode) UnmarshalText(text []byte) error {
	v, err := ParseSweepMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

const (
	FormatRaw Format = iota
	FormatCorrected
)

// Format selects raw or error-corrected trace data
type Format int

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatCorrected:
		return "corrected"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses "raw" or "corrected"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw", "rawdata":
		return FormatRaw, nil
	case "corrected", "correcteddata", "calibrated":
		return FormatCorrected, nil
	}
	return 0, fmt.Errorf("vna.Format: unknown format: %q", s)
}

// SetUpMode selects the set of measured parameters
type SetUpMode int

const (
	SetUpUnknown SetUpMode = iota
	SetUpS11
	SetUpS21
	SetUpS12
	SetUpS22
	SetUpSxx
	SetUpSwitchTerms
	SetUpB1B2P1
	SetUpB2B1P2
	SetUpA1P1
	SetUpB1P1
	SetUpB2P1
	SetUpA2P1
	SetUpA1P2
	SetUpB1P2
	SetUpB2P2
	SetUpA2P2
	SetUpXxP1
	SetUpXxP2
	SetUpXx
)

var setUpModeNames = [...]string{
	SetUpUnknown:     "unknown",
	SetUpS11:         "S11",
	SetUpS21:         "S21",
	SetUpS12:         "S12",
	SetUpS22:         "S22",
	SetUpSxx:         "Sxx",
	SetUpSwitchTerms: "SwitchTerms",
	SetUpB1B2P1:      "b1_b2_p1",
	SetUpB2B1P2:      "b2_b1_p2",
	SetUpA1P1:        "a1_p1",
	SetUpB1P1:        "b1_p1",
	SetUpB2P1:        "b2_p1",
	SetUpA2P1:        "a2_p1",
	SetUpA1P2:        "a1_p2",
	SetUpB1P2:        "b1_p2",
	SetUpB2P2:        "b2_p2",
	SetUpA2P2:        "a2_p2",
	SetUpXxP1:        "xx_p1",
	SetUpXxP2:        "xx_p2",
	SetUpXx:          "xx",
}

func (m SetUpMode) String() string {
	if m >= 0 && int(m) < len(setUpModeNames) {
		return setUpModeNames[m]
	}
	return fmt.Sprintf("SetUpMode(%d)", int(m))
}

// ParseSetUpMode parses a set-up mode by its exact name, e.g. "S21" or "xx_p1"
func ParseSetUpMode(s string) (SetUpMode, error) {
	s = strings.TrimSpace(s)
	for i, name := range setUpModeNames {
		if name == s {
			return SetUpMode(i), nil
		}
	}
	return SetUpUnknown, fmt.Errorf("vna.SetUpMode: unknown set-up mode: %q", s)
}

func (m SetUpMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SetUpMode) UnmarshalText(text []byte) error {
	v, err := ParseSetUpMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Segment is one row of a segment sweep table
type Segment struct {
	Start       float64 `yaml:"start" json:"start"`             // Hz
	Stop        float64 `yaml:"stop" json:"stop"`               // Hz
	Step        float64 `yaml:"step" json:"step"`               // Hz
	IFBandwidth float64 `yaml:"ifBandwidth" json:"ifBandwidth"` // Hz, 0 when not supported
}

// MaxSweepPoints bounds the frequency points of a computed sweep, well
// above what the 360 and 360B measure
const MaxSweepPoints = 10001

// Points returns the number of frequency points the segment spans. Counts
// above MaxSweepPoints are reported as MaxSweepPoints+1.
func (s Segment) Points() int {
	if s.Step <= 0 {
		return 1
	}
	n := math.Floor((s.Stop-s.Start)/s.Step + 1)
	if math.IsNaN(n) || n > MaxSweepPoints {
		return MaxSweepPoints + 1
	}
	return max(int(n), 0)
}
