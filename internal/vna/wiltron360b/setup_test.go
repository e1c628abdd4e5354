package wiltron360b

import (
	"errors"
	"slices"
	"testing"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

func TestSetUp_Commands(t *testing.T) {
	tests := []struct {
		mode     vna.SetUpMode
		expected []string
	}{
		{vna.SetUpS11, []string{"DSP CH1 MPH"}},
		{vna.SetUpS21, []string{"DSP CH2 MPH"}},
		{vna.SetUpS12, []string{"DSP CH3 MPH"}},
		{vna.SetUpS22, []string{"DSP CH4 S22 MPH"}},
		{vna.SetUpSxx, []string{"D14 CH1 S11 MPH CH2 S12 MPH CH3 S21 MPH CH4 S22 MPH"}},
		{vna.SetUpSwitchTerms, []string{
			"D14 CH1 US2 MPH CH3 S21 MPH CH2 S12 MPH CH4 US4 MPH",
			"US2 NA1 DB1 LA2 ",
			"US4 NA2 DB2 LA1 USL a2/b2",
		}},
		{vna.SetUpB1B2P1, []string{"DSP  US2 NB1 DB2 LA1 USL b1/b2"}},
		{vna.SetUpB2B1P2, []string{`SINC;USER4;DRIVPORT2;LOCKA2;NUMEB2;DENOB1;CONVS;PARL "b2/b1_p2";REDD;ENTO`}},
		{vna.SetUpA1P1, []string{`SINC;USER1;DRIVPORT1;LOCKA1;DENONOR;NUMEA1;CONVS;PARL "a1_p1";REDD;ENTO`}},
		{vna.SetUpB2P1, []string{`SINC;USER3;DRIVPORT1;LOCKA1;DENONOR;NUMEB2;CONVS;PARL "b2_p1";REDD;ENTO`}},
		{vna.SetUpB1P2, []string{`SINC;USER2;DRIVPORT2;LOCKA2;DENONOR;NUMEB1;CONVS;PARL "b1_p2";REDD`}},
		{vna.SetUpA2P2, []string{`SINC;USER4;DRIVPORT2;LOCKA2;DENONOR;NUMEA2;CONVS;PARL "a2_p2";REDD;ENTO`}},
		{vna.SetUpXxP1, []string{
			"FOUPSPLI;USER1;USER2;USER3;USER4;ENTO",
			`USER1;DRIVPORT1;LOCKA1;DENONOR;NUMEA1;CONVS;PARL "a1_p1";REDD`,
			`USER2;DRIVPORT1;LOCKA1;DENONOR;NUMEB1;CONVS;PARL "b1_p1";REDD`,
			`USER3;DRIVPORT1;LOCKA1;DENONOR;NUMEB2;CONVS;PARL "b2_p1";REDD`,
			`USER4;DRIVPORT1;LOCKA1;DENONOR;NUMEA2;CONVS;PARL "a2_p1";REDD`,
		}},
		{vna.SetUpXxP2, []string{
			"FOUPSPLI;USER1;USER2;USER3;USER4;ENTO",
			`USER1;DRIVPORT2;LOCKA2;DENONOR;NUMEA1;CONVS;PARL "a1_p2";REDD`,
			`USER2;DRIVPORT2;LOCKA2;DENONOR;NUMEB1;CONVS;PARL "b1_p2";REDD`,
			`USER3;DRIVPORT2;LOCKA2;DENONOR;NUMEB2;CONVS;PARL "b2_p2";REDD`,
			`USER4;DRIVPORT2;LOCKA2;DENONOR;NUMEA2;CONVS;PARL "a2_p2";REDD`,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			s, d := open(t, nil)

			if err := d.SetUp(tt.mode); err != nil {
				t.Fatalf("Failed to set up: %v", err)
			}
			assertWrites(t, s, tt.expected...)

			if d.SetUpMode() != tt.mode {
				t.Errorf("Expected mode %s, got %s", tt.mode, d.SetUpMode())
			}
		})
	}
}

func TestSetUp_ParameterOrder(t *testing.T) {
	tests := map[vna.SetUpMode][]string{
		vna.SetUpSxx:         {"S1,1", "S2,1", "S1,2", "S2,2"},
		vna.SetUpSwitchTerms: {"a1/b1_p2", "a2/b2_p1"},
		vna.SetUpXxP2:        {"a1_p2", "b1_p2", "b2_p2", "a2_p2"},
	}

	for mode, expected := range tests {
		_, d := open(t, nil)
		if err := d.SetUp(mode); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}

		var got []string
		for _, p := range d.Parameters() {
			got = append(got, p.Name())
		}
		if !slices.Equal(got, expected) {
			t.Errorf("%s: expected %v, got %v", mode, expected, got)
		}
	}
}

func TestSetUp_Unsupported(t *testing.T) {
	for _, mode := range []vna.SetUpMode{vna.SetUpXx, vna.SetUpUnknown} {
		s, d := open(t, nil)

		if err := d.SetUp(mode); !errors.Is(err, vna.ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", mode, err)
		}
		if len(s.Writes()) != 0 {
			t.Errorf("%s: expected no writes, got %v", mode, s.Writes())
		}
	}
}

func TestSetUp_FailureKeepsParameters(t *testing.T) {
	s, d := open(t, nil)
	if err := d.SetUp(vna.SetUpS11); err != nil {
		t.Fatalf("Failed to set up: %v", err)
	}

	s.Fail = map[string]error{"D14 CH1 US2 MPH CH3 S21 MPH CH2 S12 MPH CH4 US4 MPH": errors.New("bus error")}
	if err := d.SetUp(vna.SetUpSwitchTerms); err == nil {
		t.Fatal("Expected set-up to fail")
	}

	if d.SetUpMode() != vna.SetUpS11 || d.disp4p {
		t.Errorf("Expected S11 single channel set-up to be kept, got %s disp4p=%t", d.SetUpMode(), d.disp4p)
	}
	if p := d.Parameters(); len(p) != 1 || p[0].Name() != "S1,1" {
		t.Errorf("Expected S1,1 to be kept, got %v", p)
	}
}

func TestSetUp_PartialFailureResets(t *testing.T) {
	s, d := open(t, nil)
	if err := d.SetUp(vna.SetUpS11); err != nil {
		t.Fatalf("Failed to set up: %v", err)
	}

	s.Fail = map[string]error{"US2 NA1 DB1 LA2 ": errors.New("bus error")}
	if err := d.SetUp(vna.SetUpSwitchTerms); err == nil {
		t.Fatal("Expected set-up to fail")
	}

	if d.SetUpMode() != vna.SetUpUnknown || d.disp4p {
		t.Errorf("Expected unknown set-up, got %s disp4p=%t", d.SetUpMode(), d.disp4p)
	}
	if p := d.Parameters(); len(p) != 0 {
		t.Errorf("Expected no parameters, got %v", p)
	}
	if _, err := d.GetData(vna.FormatCorrected); err == nil {
		t.Error("Expected GetData to fail without a set-up")
	}
}
