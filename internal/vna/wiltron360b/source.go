package wiltron360b

import (
	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

func (d *Device) Source1Power() (float64, error)      { return d.bus.QueryFloat("POWE;OUTPACTI") }
func (d *Device) SetSource1Power(dbm float64) error   { return d.setE12("POWE", dbm) }
func (d *Device) Source2Power() (float64, error)      { return d.bus.QueryFloat("POW2;OUTPACTI") }
func (d *Device) SetSource2Power(dbm float64) error   { return d.setE12("POW2", dbm) }
func (d *Device) Port1Attenuator() (float64, error)   { return d.bus.QueryFloat("ATTP1;OUTPACTI") }
func (d *Device) SetPort1Attenuator(db float64) error { return d.setE12("ATTP1", db) }
func (d *Device) Port2Attenuator() (float64, error)   { return d.bus.QueryFloat("ATTP2;OUTPACTI") }
func (d *Device) SetPort2Attenuator(db float64) error { return d.setE12("ATTP2", db) }
func (d *Device) Port1Extension() (float64, error)    { return d.bus.QueryFloat("PORT1;OUTPACTI") }
func (d *Device) SetPort1Extension(s float64) error   { return d.setE12("PORT1", s) }
func (d *Device) Port2Extension() (float64, error)    { return d.bus.QueryFloat("PORT2;OUTPACTI") }
func (d *Device) SetPort2Extension(s float64) error   { return d.setE12("PORT2", s) }

func (d *Device) Source1PowerSlope() (float64, error)  { return d.slope("SLOP") }
func (d *Device) SetSource1PowerSlope(v float64) error { return d.setSlope("SLOP", v) }
func (d *Device) Source2PowerSlope() (float64, error)  { return d.slope("SLOP2") }
func (d *Device) SetSource2PowerSlope(v float64) error { return d.setSlope("SLOP2", v) }

// slope is 0 while the power slope is off
func (d *Device) slope(cmd string) (float64, error) {
	on, err := d.bus.QueryInt(cmd + "?")
	if err != nil {
		return 0, err
	}
	if on != 1 {
		return 0, nil
	}
	return d.bus.QueryFloat(cmd + "ON;OUTPACTI")
}

func (d *Device) setSlope(cmd string, v float64) error {
	if v <= 0 {
		return d.bus.Write(cmd + "OFF")
	}
	return d.bus.Write(cmd + "ON " + vna.FormatPlain(v))
}

// Z0 is read from the instrument once and cached
func (d *Device) Z0() (float64, error) {
	if d.z0 == 0 {
		z0, err := d.bus.QueryFloat("SETZ;OUTPACTI")
		if err != nil {
			return 0, err
		}
		d.z0 = z0
	}
	return d.z0, nil
}

func (d *Device) SetZ0(ohm float64) error {
	d.z0 = ohm
	return d.setE12("SETZ", ohm)
}

func (d *Device) OutputState() (bool, error) {
	return true, nil
}

func (d *Device) SetOutputState(bool) error {
	return vna.Unsupported(Model + " output state")
}
