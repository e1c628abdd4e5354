package wiltron360b

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

type setUp struct {
	commands []string
	disp4p   bool // four channel display, raw data is read per channel
}

var setUps = map[vna.SetUpMode]setUp{
	vna.SetUpS11: {commands: []string{"DSP CH1 MPH"}},
	vna.SetUpS21: {commands: []string{"DSP CH2 MPH"}},
	vna.SetUpS12: {commands: []string{"DSP CH3 MPH"}},
	vna.SetUpS22: {commands: []string{"DSP CH4 S22 MPH"}},
	vna.SetUpSxx: {
		commands: []string{"D14 CH1 S11 MPH CH2 S12 MPH CH3 S21 MPH CH4 S22 MPH"},
		disp4p:   true,
	},
	// a1 as numerator leaves no denominator choice, the ratios are set up
	// inverted and reciprocated on read
	vna.SetUpSwitchTerms: {
		commands: []string{
			"D14 CH1 US2 MPH CH3 S21 MPH CH2 S12 MPH CH4 US4 MPH",
			"US2 NA1 DB1 LA2 ",
			"US4 NA2 DB2 LA1 USL a2/b2",
		},
		disp4p: true,
	},
	// DENOB2 is not possible, b2/b1 is measured and reciprocated
	vna.SetUpB1B2P1: {commands: []string{"DSP  US2 NB1 DB2 LA1 USL b1/b2"}},
	vna.SetUpB2B1P2: {commands: []string{`SINC;USER4;DRIVPORT2;LOCKA2;NUMEB2;DENOB1;CONVS;PARL "b2/b1_p2";REDD;ENTO`}},
	vna.SetUpA1P1:   {commands: []string{receiver(1, 1, "A1") + ";ENTO"}},
	vna.SetUpB1P1:   {commands: []string{receiver(2, 1, "B1") + ";ENTO"}},
	vna.SetUpB2P1:   {commands: []string{receiver(3, 1, "B2") + ";ENTO"}},
	vna.SetUpA2P1:   {commands: []string{receiver(4, 1, "A2") + ";ENTO"}},
	vna.SetUpA1P2:   {commands: []string{receiver(1, 2, "A1") + ";ENTO"}},
	vna.SetUpB1P2:   {commands: []string{receiver(2, 2, "B1")}}, // stays in entry mode
	vna.SetUpB2P2:   {commands: []string{receiver(3, 2, "B2") + ";ENTO"}},
	vna.SetUpA2P2:   {commands: []string{receiver(4, 2, "A2") + ";ENTO"}},
	vna.SetUpXxP1:   {commands: fourReceivers(1), disp4p: true},
	vna.SetUpXxP2:   {commands: fourReceivers(2), disp4p: true},
}

// receiver is the single channel user parameter set-up of one receiver
func receiver(user, drive int, numerator string) string {
	return "SINC;" + userParameter(user, drive, numerator)
}

// userParameter defines USER<user> as the numerator receiver (e.g. "B1")
// driven from port drive, labelled "b1_p<drive>"
func userParameter(user, drive int, numerator string) string {
	return fmt.Sprintf(`USER%d;DRIVPORT%d;LOCKA%d;DENONOR;NUME%s;CONVS;PARL "%s_p%d";REDD`,
		user, drive, drive, numerator, strings.ToLower(numerator), drive)
}

func fourReceivers(drive int) []string {
	cmds := []string{"FOUPSPLI;USER1;USER2;USER3;USER4;ENTO"}
	for i, r := range []string{"A1", "B1", "B2", "A2"} {
		cmds = append(cmds, userParameter(i+1, drive, r))
	}
	return cmds
}

// SetUp selects the measured parameters. The parameters and the display
// layout change only once the instrument accepted every command. When a
// later command fails the instrument is left half configured and the set-up
// becomes unknown.
func (d *Device) SetUp(mode vna.SetUpMode) error {
	su, ok := setUps[mode]
	if !ok {
		return vna.Unsupported("set-up mode " + mode.String())
	}

	params, err := vna.ParametersFor(mode)
	if err != nil {
		return err
	}
	for i, cmd := range su.commands {
		if err = d.bus.Write(cmd); err != nil {
			if i > 0 {
				d.resetSetUp()
			}
			return err
		}
	}

	d.setUpMode, d.parameters, d.disp4p = mode, params, su.disp4p
	return nil
}

func (d *Device) SetUpMode() vna.SetUpMode {
	return d.setUpMode
}

func (d *Device) Parameters() []vna.Parameter {
	return slices.Clone(d.parameters)
}
