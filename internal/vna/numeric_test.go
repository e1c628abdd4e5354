package vna

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestFormatE12(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{1e9, "1.000000000000E+009"},
		{40e6, "4.000000000000E+007"},
		{-10, "-1.000000000000E+001"},
		{0, "0.000000000000E+000"},
		{1.5e-12, "1.500000000000E-012"},
		{2.5e100, "2.500000000000E+100"},
		{123456789.123, "1.234567891230E+008"},
	}

	for _, tt := range tests {
		if got := FormatE12(tt.in); got != tt.expected {
			t.Errorf("FormatE12(%g): expected %s, got %s", tt.in, tt.expected, got)
		}
	}
}

func TestFormatE12_RoundTrip(t *testing.T) {
	for _, v := range []float64{1.23456789012e9, 40.5e6, 3.3e-9, 50} {
		got, err := strconv.ParseFloat(FormatE12(v), 64)
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", FormatE12(v), err)
		}
		if math.Abs(got-v) > math.Abs(v)*1e-12 {
			t.Errorf("Round trip of %g gave %g", v, got)
		}
	}
}

func TestFormatPlain(t *testing.T) {
	tests := map[float64]string{
		40:      "40",
		1234.5:  "1234.5",
		-10:     "-10",
		40000:   "40000",
		0.00125: "0.00125",
	}

	for in, expected := range tests {
		if got := FormatPlain(in); got != expected {
			t.Errorf("FormatPlain(%g): expected %s, got %s", in, expected, got)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in       string
		expected int
		fail     bool
	}{
		{"401", 401, false},
		{" 51\n", 51, false},
		{"1.010000000000E+003", 1010, false},
		{"1.5", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseInt(tt.in)
		if tt.fail {
			if err == nil {
				t.Errorf("ParseInt(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseInt(%q): expected %d, got %d (%v)", tt.in, tt.expected, got, err)
		}
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(1e9, 2e9, 5)
	expected := []float64{1e9, 1.25e9, 1.5e9, 1.75e9, 2e9}

	if len(got) != len(expected) {
		t.Fatalf("Expected %d points, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Point %d: expected %g, got %g", i, expected[i], got[i])
		}
	}

	if got = Linspace(5, 5, 3); got[0] != 5 || got[2] != 5 {
		t.Errorf("Expected constant list, got %v", got)
	}
	if got = Linspace(1, 2, 1); len(got) != 1 || got[0] != 1 {
		t.Errorf("Expected [1], got %v", got)
	}
	if got = Linspace(1, 2, 0); len(got) != 0 {
		t.Errorf("Expected empty list, got %v", got)
	}
}

func TestLogspace(t *testing.T) {
	got := Logspace(1e6, 1e9, 4)
	expected := []float64{1e6, 1e7, 1e8, 1e9}

	for i := range expected {
		if math.Abs(got[i]-expected[i]) > expected[i]*1e-12 {
			t.Errorf("Point %d: expected %g, got %g", i, expected[i], got[i])
		}
	}
}

func TestSegmentFrequencies(t *testing.T) {
	segments := []Segment{
		{Start: 1e9, Stop: 2e9, Step: 0.5e9},
		{Start: 3e9, Stop: 3e9, Step: 0},
	}

	got, err := SegmentFrequencies(segments)
	if err != nil {
		t.Fatalf("Failed to compute frequencies: %v", err)
	}
	expected := []float64{1e9, 1.5e9, 2e9, 3e9}

	if len(got) != len(expected) {
		t.Fatalf("Expected %d points, got %v", len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Point %d: expected %g, got %g", i, expected[i], got[i])
		}
	}

	if got, err = SegmentFrequencies(nil); err != nil || got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil list, got %v (%v)", got, err)
	}
}

func TestSegmentFrequencies_TooManyPoints(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
	}{
		{"tiny step", []Segment{{Start: 1e9, Stop: 2e9, Step: 1e-3}}},
		{"sum of segments", []Segment{
			{Start: 1e9, Stop: 2e9, Step: 0.2e6}, // 5001 points
			{Start: 3e9, Stop: 4e9, Step: 0.2e6},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SegmentFrequencies(tt.segments)
			var protocolErr *ProtocolError
			if !errors.As(err, &protocolErr) {
				t.Errorf("Expected ProtocolError, got %v", err)
			}
		})
	}

	if n := (Segment{Start: 1e9, Stop: 2e9, Step: 1e-3}).Points(); n != MaxSweepPoints+1 {
		t.Errorf("Expected point count capped at %d, got %d", MaxSweepPoints+1, n)
	}
}

func TestFormatHz(t *testing.T) {
	if got := FormatHz(1.5e9); got != "1.5 GHz" {
		t.Errorf("Expected 1.5 GHz, got %s", got)
	}
	if got := FormatHz(40e6); got != "40 MHz" {
		t.Errorf("Expected 40 MHz, got %s", got)
	}
}
