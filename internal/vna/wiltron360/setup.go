package wiltron360

import (
	"slices"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

var setUpCommands = map[vna.SetUpMode]string{
	vna.SetUpS11: "DSP S11",
	vna.SetUpS21: "DSP S21",
	vna.SetUpS12: "DSP S12",
	vna.SetUpS22: "DSP S22",
	vna.SetUpSxx: "D14 CH1 S11 CH2 S12 CH3 S21 CH4 S22",
}

// SetUp selects one S-parameter or all four on a four channel display
func (d *Device) SetUp(mode vna.SetUpMode) error {
	cmd, ok := setUpCommands[mode]
	if !ok {
		return vna.Unsupported("set-up mode " + mode.String())
	}

	params, err := vna.ParametersFor(mode)
	if err != nil {
		return err
	}
	if err = d.bus.Write(cmd); err != nil {
		return err
	}

	d.setUpMode, d.parameters, d.disp4p = mode, params, mode == vna.SetUpSxx
	return nil
}

func (d *Device) SetUpMode() vna.SetUpMode {
	return d.setUpMode
}

func (d *Device) Parameters() []vna.Parameter {
	return slices.Clone(d.parameters)
}
