package wiltron360b

import (
	"fmt"
	"strings"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

var sweepModes = map[string]vna.SweepMode{
	"RAMP":            vna.LinearFrequency,
	"STEP":            vna.LinearFrequency,
	"FREQUENCY  LIST": vna.SegmentSweep,
	"SINGLE POINT":    vna.CWTime,
	"FAST CW":         vna.CWTime,
}

// SweepMode reads the sweep mode. Unknown mode names read as LinearFrequency.
func (d *Device) SweepMode() (vna.SweepMode, error) {
	var reply string
	err := d.bus.WithTimeouts(EditTimeout, func() (err error) {
		reply, err = d.bus.Query("SWEM?")
		return err
	})
	if err != nil {
		return 0, err
	}

	// the mode name is the first quoted field, e.g. `SWEEP MODE "STEP"`
	fields := strings.Split(reply, `"`)
	if len(fields) < 2 {
		return 0, &vna.ProtocolError{Op: "SWEM?", Msg: fmt.Sprintf("no quoted mode in %q", reply)}
	}
	if m, ok := sweepModes[fields[1]]; ok {
		return m, nil
	}
	return vna.LinearFrequency, nil
}

// SetSweepMode selects a stepped linear, segment (frequency list) or single
// point sweep. A segment sweep with an empty segment list first gets one
// segment covering the current start/stop range.
func (d *Device) SetSweepMode(m vna.SweepMode) error {
	var cmd string
	switch m {
	case vna.LinearFrequency:
		cmd = "STEP"
	case vna.SegmentSweep:
		n, err := d.bus.QueryInt("NUMS?")
		if err != nil {
			return err
		}
		if n == 0 {
			if err = d.defaultSegment(); err != nil {
				return err
			}
		}
		cmd = "LISFREQ;ASEG"
	case vna.CWTime:
		cmd = "SINP"
	default:
		return vna.Unsupported("sweep mode " + m.String())
	}
	return d.bus.Write(cmd)
}

func (d *Device) defaultSegment() error {
	start, err := d.FrequencyStart()
	if err != nil {
		return err
	}
	stop, err := d.FrequencyStop()
	if err != nil {
		return err
	}
	points, err := d.SweepPoints()
	if err != nil {
		return err
	}

	var step float64
	if points > 1 {
		step = (stop - start) / float64(points-1)
	}
	return d.SetSegmentTable([]vna.Segment{{Start: start, Stop: stop, Step: step}})
}

func (d *Device) SweepTime() (float64, error)   { return d.bus.QueryFloat("SWET;OUTPACTI") }
func (d *Device) SetSweepTime(s float64) error  { return d.setE12("SWET", s) }
func (d *Device) DwellTime() (float64, error)   { return d.bus.QueryFloat("DWET;OUTPACTI") }
func (d *Device) SetDwellTime(s float64) error  { return d.setE12("DWET", s) }
func (d *Device) SweepPoints() (int, error)     { return d.bus.QueryInt("POIN;OUTPACTI") }
func (d *Device) SetSweepPoints(n int) error    { return d.bus.Write(fmt.Sprintf("POIN %d", n)) }
func (d *Device) IFBandwidth() (float64, error) { return 0, nil }
func (d *Device) SetIFBandwidth(float64) error  { return nil }

func (d *Device) FrequencyStart() (float64, error)    { return d.bus.QueryFloat("STAR;OUTPACTI") }
func (d *Device) SetFrequencyStart(hz float64) error  { return d.setE12("STAR", hz) }
func (d *Device) FrequencyStop() (float64, error)     { return d.bus.QueryFloat("STOP;OUTPACTI") }
func (d *Device) SetFrequencyStop(hz float64) error   { return d.setE12("STOP", hz) }
func (d *Device) FrequencyCenter() (float64, error)   { return d.bus.QueryFloat("CENT;OUTPACTI") }
func (d *Device) SetFrequencyCenter(hz float64) error { return d.setE12("CENT", hz) }
func (d *Device) FrequencySpan() (float64, error)     { return d.bus.QueryFloat("SPAN;OUTPACTI") }
func (d *Device) SetFrequencySpan(hz float64) error   { return d.setE12("SPAN", hz) }

// FrequencyCW is the center frequency
func (d *Device) FrequencyCW() (float64, error)   { return d.FrequencyCenter() }
func (d *Device) SetFrequencyCW(hz float64) error { return d.SetFrequencyCenter(hz) }

// IFAverageFactor is 1 while averaging is off
func (d *Device) IFAverageFactor() (int, error) {
	on, err := d.bus.QueryInt("AVER?")
	if err != nil {
		return 0, err
	}
	if on != 1 {
		return 1, nil
	}
	return d.bus.QueryInt("AVERON;OUTPACTI")
}

func (d *Device) SetIFAverageFactor(n int) error {
	if n <= 1 {
		return d.bus.Write("AVEROFF")
	}
	return d.bus.Write(fmt.Sprintf("AVERON %d", n))
}

// FrequencyList computes the frequency points from the sweep settings
func (d *Device) FrequencyList() ([]float64, error) {
	mode, err := d.SweepMode()
	if err != nil {
		return nil, err
	}

	switch mode {
	case vna.SegmentSweep:
		segments, err := d.SegmentTable()
		if err != nil {
			return nil, err
		}
		return vna.SegmentFrequencies(segments)
	case vna.CWTime:
		points, err := d.SweepPoints()
		if err != nil {
			return nil, err
		}
		cw, err := d.FrequencyCW()
		if err != nil {
			return nil, err
		}
		return vna.Linspace(cw, cw, points), nil
	}

	points, err := d.SweepPoints()
	if err != nil {
		return nil, err
	}
	start, err := d.FrequencyStart()
	if err != nil {
		return nil, err
	}
	stop, err := d.FrequencyStop()
	if err != nil {
		return nil, err
	}
	if mode == vna.LogFrequency {
		return vna.Logspace(start, stop, points), nil
	}
	return vna.Linspace(start, stop, points), nil
}

func (d *Device) setE12(cmd string, v float64) error {
	return d.bus.Write(cmd + " " + vna.FormatE12(v))
}
