package vna

import (
	"context"
)

// Capabilities reports which optional operations a model implements
type Capabilities struct {
	Model       string `json:"model"`
	GetData     bool   `json:"getData"`
	State       bool   `json:"state"`
	Preset      bool   `json:"preset"`
	SegmentEdit bool   `json:"segmentEdit"`
	Readback    bool   `json:"readback"` // numeric properties can be read back
}

// Sweeper controls the frequency sweep
type Sweeper interface {
	SweepMode() (SweepMode, error)
	SetSweepMode(m SweepMode) error

	SweepTime() (float64, error) // s
	SetSweepTime(s float64) error
	DwellTime() (float64, error) // s
	SetDwellTime(s float64) error

	SweepPoints() (int, error)
	SetSweepPoints(n int) error

	IFBandwidth() (float64, error)
	SetIFBandwidth(hz float64) error
	IFAverageFactor() (int, error)
	SetIFAverageFactor(n int) error

	FrequencyStart() (float64, error)
	SetFrequencyStart(hz float64) error
	FrequencyStop() (float64, error)
	SetFrequencyStop(hz float64) error
	FrequencyCenter() (float64, error)
	SetFrequencyCenter(hz float64) error
	FrequencySpan() (float64, error)
	SetFrequencySpan(hz float64) error
	FrequencyCW() (float64, error)
	SetFrequencyCW(hz float64) error

	// FrequencyList returns the frequency points of the current sweep, Hz
	FrequencyList() ([]float64, error)

	SegmentTable() ([]Segment, error)
	SetSegmentTable(segments []Segment) error
}

// Sourcer controls the stimulus and test port settings
type Sourcer interface {
	Source1Power() (float64, error) // dBm
	SetSource1Power(dbm float64) error
	Source2Power() (float64, error)
	SetSource2Power(dbm float64) error

	Source1PowerSlope() (float64, error) // dB/GHz, 0 when off
	SetSource1PowerSlope(v float64) error
	Source2PowerSlope() (float64, error)
	SetSource2PowerSlope(v float64) error

	Port1Attenuator() (float64, error) // dB
	SetPort1Attenuator(db float64) error
	Port2Attenuator() (float64, error)
	SetPort2Attenuator(db float64) error

	Port1Extension() (float64, error) // s
	SetPort1Extension(s float64) error
	Port2Extension() (float64, error)
	SetPort2Extension(s float64) error

	Z0() (float64, error) // ohm
	SetZ0(ohm float64) error

	OutputState() (bool, error)
	SetOutputState(on bool) error
}

// Trigger controls sweep triggering
type Trigger interface {
	TriggerHold() error
	TriggerCont() error

	// TriggerSingleStart arms the sweep-complete handshake and starts one sweep
	TriggerSingleStart() error

	// TriggerSingleWait blocks until the armed sweep completes, the SRQ timeout
	// elapses or ctx is done, and restores the prior SRQ configuration.
	TriggerSingleWait(ctx context.Context) error

	// TriggerSingle is TriggerSingleStart followed by TriggerSingleWait
	TriggerSingle(ctx context.Context) error
}

// Setupper selects the measured parameter set
type Setupper interface {
	SetUp(mode SetUpMode) error
	SetUpMode() SetUpMode
	Parameters() []Parameter
}

// DataReader reads measured traces
type DataReader interface {
	GetData(f Format) (*Data, error)
}

// StateHolder saves and restores opaque instrument state
type StateHolder interface {
	State() ([]byte, error)
	SetState(b []byte) error
	Preset() error
}

// Device is a vector network analyzer driver
type Device interface {
	Sweeper
	Sourcer
	Trigger
	Setupper
	DataReader
	StateHolder

	Identification() string
	NTestPorts() int
	Capabilities() Capabilities
	Close() error
}
