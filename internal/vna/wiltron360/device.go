// Package wiltron360 drives the Wiltron 360 vector network analyzer.
//
// The 360 reads back only its frequency list (OFV). Source, attenuator and
// timing properties are write-only and read as NaN.
package wiltron360

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

const (
	Model = "360"

	DefaultTimeout = 10 * time.Second

	// MinFrequency is the lowest start frequency the 360 accepts, Hz
	MinFrequency = 40e6
	// MaxFrequency is the highest stop frequency of the 360, Hz
	MaxFrequency = 40e9

	srqMask      = "SQ1"
	sweepCommand = "TRS"
	testPorts    = 2
)

// WithLogger sets the logger for the device
func WithLogger(logger *slog.Logger) func(d *Device) {
	return func(d *Device) {
		d.logger = logger.With(slog.String("model", Model))
	}
}

// Device is a Wiltron 360 driver. It is not safe for concurrent use.
type Device struct {
	bus     *vna.Bus
	trigger *vna.SRQTrigger
	logger  *slog.Logger

	identification string
	setUpMode      vna.SetUpMode
	parameters     []vna.Parameter
	disp4p         bool
}

// Open identifies the instrument on s and enables its service requests
func Open(s vna.Session, options ...func(d *Device)) (*Device, error) {
	d := Device{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&d)
	}

	d.bus = vna.NewBus(s, d.logger)
	d.trigger = vna.NewSRQTrigger(d.bus, srqMask, sweepCommand)

	idn, err := d.bus.Query("OID")
	if err != nil {
		return nil, fmt.Errorf("identification: %w", err)
	}
	if !strings.Contains(idn, Model) {
		return nil, &vna.IdentificationError{Expected: Model, Got: idn}
	}
	d.identification = idn

	if err = s.SetSRQTimeout(DefaultTimeout); err != nil {
		return nil, fmt.Errorf("set SRQ timeout: %w", err)
	}
	if err = d.bus.Write("SQ1"); err != nil { // enable any unmasked service request
		return nil, err
	}
	if err = s.SetTimeout(DefaultTimeout); err != nil {
		return nil, fmt.Errorf("set timeout: %w", err)
	}
	if err = s.SetSRQMask(srqMask); err != nil {
		return nil, fmt.Errorf("set SRQ mask: %w", err)
	}

	d.logger.Info("instrument opened", slog.String("identification", idn))

	return &d, nil
}

// Close returns the instrument to local control and closes the session
func (d *Device) Close() error {
	err := d.bus.Write("RST RTL")
	if cerr := d.bus.Session().Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *Device) Identification() string {
	return d.identification
}

func (d *Device) NTestPorts() int {
	return testPorts
}

func (d *Device) Capabilities() vna.Capabilities {
	return vna.Capabilities{Model: Model}
}

// FrequencyList returns the frequency points reported by OFV
func (d *Device) FrequencyList() ([]float64, error) {
	list, err := d.bus.QueryFloats("OFV")
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &vna.ProtocolError{Op: "OFV", Msg: "empty frequency list"}
	}
	return list, nil
}

// SweepMode is CWTime when every frequency point is the same and
// LinearFrequency otherwise
func (d *Device) SweepMode() (vna.SweepMode, error) {
	list, err := d.FrequencyList()
	if err != nil {
		return 0, err
	}
	for _, f := range list[1:] {
		if f != list[0] {
			return vna.LinearFrequency, nil
		}
	}
	return vna.CWTime, nil
}

// SetSweepMode supports LinearFrequency, which selects the full 40 MHz to
// 40 GHz range, and CWTime at 1 GHz
func (d *Device) SetSweepMode(m vna.SweepMode) error {
	switch m {
	case vna.LinearFrequency:
		if err := d.SetFrequencyStart(MinFrequency); err != nil {
			return err
		}
		return d.SetFrequencyStop(MaxFrequency)
	case vna.CWTime:
		return d.bus.Write("CWF 1GHZ")
	default:
		return vna.Unsupported("sweep mode " + m.String())
	}
}

func (d *Device) SweepTime() (float64, error)      { return math.NaN(), nil }
func (d *Device) SetSweepTime(float64) error       { return nil }
func (d *Device) DwellTime() (float64, error)      { return math.NaN(), nil }
func (d *Device) SetDwellTime(float64) error       { return nil }
func (d *Device) IFBandwidth() (float64, error)    { return math.NaN(), nil }
func (d *Device) IFAverageFactor() (int, error)    { return 0, nil }
func (d *Device) SetFrequencyCenter(float64) error { return nil }
func (d *Device) SetFrequencySpan(float64) error   { return nil }

func (d *Device) SetIFBandwidth(hz float64) error {
	switch {
	case hz <= 10:
		return d.bus.Write("IFM")
	case hz == 100:
		return d.bus.Write("IFN")
	default:
		return d.bus.Write("IFR")
	}
}

func (d *Device) SetIFAverageFactor(n int) error {
	if n <= 1 {
		return d.bus.Write("AOF")
	}
	return d.bus.Write(fmt.Sprintf("AVG %dXX1", n))
}

// SweepPoints is the number of points in the frequency list
func (d *Device) SweepPoints() (int, error) {
	list, err := d.FrequencyList()
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// SetSweepPoints sets the number of CW points. It has no effect in a
// frequency sweep, where the 360 fixes the point count.
func (d *Device) SetSweepPoints(n int) error {
	mode, err := d.SweepMode()
	if err != nil {
		return err
	}
	if mode != vna.CWTime {
		d.logger.Debug("sweep points ignored outside CW mode", slog.Int("points", n))
		return nil
	}
	return d.bus.Write(fmt.Sprintf("CWP %d XX1", n))
}

func (d *Device) FrequencyStart() (float64, error) {
	list, err := d.FrequencyList()
	if err != nil {
		return 0, err
	}
	return list[0], nil
}

// SetFrequencyStart clamps hz to MinFrequency
func (d *Device) SetFrequencyStart(hz float64) error {
	if hz <= MinFrequency {
		return d.bus.Write("SRT 40 MHZ")
	}
	return d.bus.Write("SRT " + mhz(hz) + "MHZ")
}

func (d *Device) FrequencyStop() (float64, error) {
	list, err := d.FrequencyList()
	if err != nil {
		return 0, err
	}
	return list[len(list)-1], nil
}

func (d *Device) SetFrequencyStop(hz float64) error {
	return d.bus.Write("STP " + mhz(hz) + "MHZ")
}

// FrequencyCenter is the middle point of the frequency list
func (d *Device) FrequencyCenter() (float64, error) {
	list, err := d.FrequencyList()
	if err != nil {
		return 0, err
	}
	return list[len(list)/2], nil
}

func (d *Device) FrequencySpan() (float64, error) {
	list, err := d.FrequencyList()
	if err != nil {
		return 0, err
	}
	return list[len(list)-1] - list[0], nil
}

// FrequencyCW is 0 unless the instrument is in CW mode
func (d *Device) FrequencyCW() (float64, error) {
	list, err := d.FrequencyList()
	if err != nil {
		return 0, err
	}
	for _, f := range list[1:] {
		if f != list[0] {
			return 0, nil
		}
	}
	return list[0], nil
}

// SetFrequencyCW switches to CW mode and sets the frequency
func (d *Device) SetFrequencyCW(hz float64) error {
	if err := d.SetSweepMode(vna.CWTime); err != nil {
		return err
	}
	return d.bus.Write("CWF " + mhz(hz) + " MHZ")
}

// SegmentTable is always empty, the 360 has no segment sweep
func (d *Device) SegmentTable() ([]vna.Segment, error) {
	return []vna.Segment{}, nil
}

func (d *Device) SetSegmentTable([]vna.Segment) error {
	return vna.Unsupported("segment table")
}

func (d *Device) Source1Power() (float64, error) { return math.NaN(), nil }
func (d *Device) Source2Power() (float64, error) { return math.NaN(), nil }

func (d *Device) SetSource1Power(dbm float64) error {
	return d.bus.Write("PWR " + vna.FormatPlain(dbm) + "DBM SR1")
}

func (d *Device) SetSource2Power(dbm float64) error {
	return d.bus.Write("PW2 " + vna.FormatPlain(dbm) + "DBM SR1")
}

func (d *Device) Port1Attenuator() (float64, error) { return math.NaN(), nil }
func (d *Device) Port2Attenuator() (float64, error) { return math.NaN(), nil }

func (d *Device) SetPort1Attenuator(db float64) error {
	return d.bus.Write("SA1 " + vna.FormatPlain(db) + "DBL SR1")
}

func (d *Device) SetPort2Attenuator(db float64) error {
	return d.bus.Write("SA2 " + vna.FormatPlain(db) + "DBL SR1")
}

// Power slopes and port extensions are not controllable and read as 0
func (d *Device) Source1PowerSlope() (float64, error) { return 0, nil }
func (d *Device) SetSource1PowerSlope(float64) error  { return nil }
func (d *Device) Source2PowerSlope() (float64, error) { return 0, nil }
func (d *Device) SetSource2PowerSlope(float64) error  { return nil }
func (d *Device) Port1Extension() (float64, error)    { return 0, nil }
func (d *Device) SetPort1Extension(float64) error     { return nil }
func (d *Device) Port2Extension() (float64, error)    { return 0, nil }
func (d *Device) SetPort2Extension(float64) error     { return nil }

func (d *Device) Z0() (float64, error) { return 50, nil }
func (d *Device) SetZ0(float64) error  { return nil }

func (d *Device) OutputState() (bool, error) { return true, nil }

func (d *Device) SetOutputState(on bool) error {
	if on {
		return d.bus.Write("RH1")
	}
	return d.bus.Write("RH0")
}

func (d *Device) TriggerHold() error {
	return d.bus.Write("HLD")
}

func (d *Device) TriggerCont() error {
	return d.bus.Write("CTN")
}

func (d *Device) TriggerSingleStart() error {
	return d.trigger.Start()
}

func (d *Device) TriggerSingleWait(ctx context.Context) error {
	return d.trigger.Wait(ctx)
}

func (d *Device) TriggerSingle(ctx context.Context) error {
	return d.trigger.Run(ctx)
}

func (d *Device) GetData(vna.Format) (*vna.Data, error) {
	return nil, vna.Unsupported(Model + " data transfer")
}

func (d *Device) State() ([]byte, error) {
	return nil, vna.Unsupported(Model + " state readback")
}

func (d *Device) SetState([]byte) error {
	return vna.Unsupported(Model + " state recall")
}

func (d *Device) Preset() error {
	return vna.Unsupported(Model + " preset")
}

func mhz(hz float64) string {
	return vna.FormatPlain(hz / 1e6)
}

var _ vna.Device = (*Device)(nil)
