package wiltron360b

import (
	"errors"
	"math/cmplx"
	"slices"
	"testing"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

var linearSweep = map[string]string{
	"SWEM?":         `SWEEP MODE "STEP"`,
	"POIN;OUTPACTI": "3",
	"STAR;OUTPACTI": "1.000000000000E+009",
	"STOP;OUTPACTI": "3.000000000000E+009",
}

func TestGetData_S21(t *testing.T) {
	s, d := open(t, linearSweep)

	if err := d.SetUp(vna.SetUpS21); err != nil {
		t.Fatalf("Failed to set up: %v", err)
	}
	if w := s.Writes(); len(w) != 1 || w[0] != "DSP CH2 MPH" {
		t.Fatalf("Expected DSP CH2 MPH, got %v", w)
	}

	samples := []complex128{0.5 + 0.1i, 0.4 - 0.2i, 0.3}
	s.Blocks = [][]byte{vna.EncodeForm3Samples(samples)}
	s.Reset()

	data, err := d.GetData(vna.FormatCorrected)
	if err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}

	if w := s.Writes(); !slices.Equal(w, []string{"S21;FORM3;OUTPDATA"}) {
		t.Errorf("Expected one FORM3 transfer, got %v", w)
	}
	if len(data.Traces) != 1 || data.Traces[0].Parameter.Name() != "S2,1" {
		t.Fatalf("Expected one S2,1 trace, got %v", data.Traces)
	}
	if n := len(data.Traces[0].Samples); n != len(data.Frequency) || n != 3 {
		t.Errorf("Expected 3 samples for 3 points, got %d for %d", n, len(data.Frequency))
	}
	if !slices.Equal(data.Traces[0].Samples, samples) {
		t.Errorf("Expected %v, got %v", samples, data.Traces[0].Samples)
	}
	if !slices.Equal(data.Frequency, []float64{1e9, 2e9, 3e9}) {
		t.Errorf("Unexpected frequency list %v", data.Frequency)
	}
	if !slices.Equal(data.Ports, []int{1, 2}) || data.PortZr[0] != 50 || data.PortZr[1] != 50 {
		t.Errorf("Expected ports 1, 2 at 50 ohm, got %v %v", data.Ports, data.PortZr)
	}
	if err = data.Validate(); err != nil {
		t.Errorf("Expected valid data: %v", err)
	}
}

func TestGetData_RawChannels(t *testing.T) {
	s, d := open(t, linearSweep)
	if err := d.SetUp(vna.SetUpSxx); err != nil {
		t.Fatalf("Failed to set up: %v", err)
	}

	block := vna.EncodeForm3Samples([]complex128{1, 1, 1})
	s.Blocks = [][]byte{block, block, block, block}
	s.Reset()

	if _, err := d.GetData(vna.FormatRaw); err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}

	expected := []string{
		"S11;FORM3;OUTPRAW1",
		"S21;FORM3;OUTPRAW2",
		"S12;FORM3;OUTPRAW3",
		"S22;FORM3;OUTPRAW4",
	}
	if w := s.Writes(); !slices.Equal(w, expected) {
		t.Errorf("Expected %v, got %v", expected, w)
	}
}

func TestGetData_RawSingleChannel(t *testing.T) {
	s, d := open(t, linearSweep)
	if err := d.SetUp(vna.SetUpS22); err != nil {
		t.Fatalf("Failed to set up: %v", err)
	}

	s.Blocks = [][]byte{vna.EncodeForm3Samples([]complex128{1, 1, 1})}
	s.Reset()

	if _, err := d.GetData(vna.FormatRaw); err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}
	if w := s.Writes(); !slices.Equal(w, []string{"S22;FORM3;OUTPRAW1"}) {
		t.Errorf("Expected raw channel 1, got %v", w)
	}
}

func TestGetData_InverseRatio(t *testing.T) {
	s, d := open(t, linearSweep)
	if err := d.SetUp(vna.SetUpSwitchTerms); err != nil {
		t.Fatalf("Failed to set up: %v", err)
	}

	raw := []complex128{2 + 2i, 0.5, -4i}
	s.Blocks = [][]byte{vna.EncodeForm3Samples(raw), vna.EncodeForm3Samples(raw)}
	s.Reset()

	data, err := d.GetData(vna.FormatCorrected)
	if err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}

	if w := s.Writes(); !slices.Equal(w, []string{"USER1;FORM3;OUTPRAW1", "USER4;FORM3;OUTPRAW4"}) {
		t.Errorf("Unexpected transfer commands %v", w)
	}
	for _, trace := range data.Traces {
		for i, z := range trace.Samples {
			if cmplx.Abs(z*raw[i]-1) > 1e-12 {
				t.Errorf("%s point %d: expected reciprocal of %v, got %v", trace.Parameter, i, raw[i], z)
			}
		}
	}
}

func TestGetData_NotInverted(t *testing.T) {
	s, d := open(t, linearSweep)
	if err := d.SetUp(vna.SetUpB2B1P2); err != nil {
		t.Fatalf("Failed to set up: %v", err)
	}

	raw := []complex128{2 + 2i, 0.5, -4i}
	s.Blocks = [][]byte{vna.EncodeForm3Samples(raw)}

	data, err := d.GetData(vna.FormatRaw)
	if err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}
	if !slices.Equal(data.Traces[0].Samples, raw) {
		t.Errorf("Expected samples unchanged, got %v", data.Traces[0].Samples)
	}
}

func TestGetData_PointMismatch(t *testing.T) {
	s, d := open(t, linearSweep)
	_ = d.SetUp(vna.SetUpS11)
	s.Blocks = [][]byte{vna.EncodeForm3Samples([]complex128{1, 1})}

	_, err := d.GetData(vna.FormatCorrected)

	var perr *vna.ProtocolError
	if !errors.As(err, &perr) {
		t.Errorf("Expected ProtocolError, got %v", err)
	}
}

func TestGetData_NoSetUp(t *testing.T) {
	_, d := open(t, linearSweep)

	if _, err := d.GetData(vna.FormatCorrected); err == nil {
		t.Error("Expected error without set-up")
	}
}
