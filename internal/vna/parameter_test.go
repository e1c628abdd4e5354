package vna

import (
	"errors"
	"slices"
	"testing"
)

func TestParameter_Name(t *testing.T) {
	tests := []struct {
		p        Parameter
		expected string
	}{
		{SParameter(2, 1), "S2,1"},
		{SParameter(1, 1), "S1,1"},
		{ReceiverParameter(ReceiverB, 1, 1), "b1_p1"},
		{ReceiverParameter(ReceiverA, 2, 2), "a2_p2"},
		{Ratio(ReceiverA, 1, ReceiverB, 1, 2), "a1/b1_p2"},
		{Ratio(ReceiverB, 2, ReceiverB, 1, 2), "b2/b1_p2"},
	}

	for _, tt := range tests {
		if got := tt.p.Name(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestParametersFor_Order(t *testing.T) {
	tests := map[SetUpMode][]string{
		SetUpS21:         {"S2,1"},
		SetUpSxx:         {"S1,1", "S2,1", "S1,2", "S2,2"},
		SetUpSwitchTerms: {"a1/b1_p2", "a2/b2_p1"},
		SetUpB1B2P1:      {"b1/b2_p1"},
		SetUpXxP1:        {"a1_p1", "b1_p1", "b2_p1", "a2_p1"},
		SetUpXxP2:        {"a1_p2", "b1_p2", "b2_p2", "a2_p2"},
	}

	for mode, expected := range tests {
		params, err := ParametersFor(mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if got := names(params); !slices.Equal(got, expected) {
			t.Errorf("%s: expected %v, got %v", mode, expected, got)
		}
	}

	if _, err := ParametersFor(SetUpUnknown); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for unknown mode, got %v", err)
	}
}

func TestParametersFor_Copy(t *testing.T) {
	params, _ := ParametersFor(SetUpSxx)
	params[0] = SParameter(2, 2)

	again, _ := ParametersFor(SetUpSxx)
	if again[0].Name() != "S1,1" {
		t.Errorf("Expected the mode table to be unaffected, got %s", again[0])
	}
}

func TestCommonPorts(t *testing.T) {
	tests := []struct {
		mode     SetUpMode
		expected []int
	}{
		{SetUpS11, []int{1}},
		{SetUpS21, []int{1, 2}},
		{SetUpA1P1, []int{1}},
		{SetUpB2P1, []int{1, 2}},
		{SetUpSwitchTerms, []int{1, 2}},
	}

	for _, tt := range tests {
		params, _ := ParametersFor(tt.mode)
		if got := CommonPorts(params); !slices.Equal(got, tt.expected) {
			t.Errorf("%s: expected %v, got %v", tt.mode, tt.expected, got)
		}
	}
}

func TestModeForParameters(t *testing.T) {
	mode, err := ModeForParameters([]Parameter{SParameter(2, 2), SParameter(1, 1), SParameter(1, 2), SParameter(2, 1)})
	if err != nil || mode != SetUpSxx {
		t.Errorf("Expected Sxx, got %s (%v)", mode, err)
	}

	mode, err = ModeForParameters([]Parameter{Ratio(ReceiverB, 1, ReceiverB, 2, 1)})
	if err != nil || mode != SetUpB1B2P1 {
		t.Errorf("Expected b1_b2_p1, got %s (%v)", mode, err)
	}

	if _, err = ModeForParameters([]Parameter{SParameter(1, 1), SParameter(2, 2)}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestParseSetUpMode(t *testing.T) {
	for mode := SetUpUnknown; mode <= SetUpXx; mode++ {
		got, err := ParseSetUpMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("Expected %s, got %s (%v)", mode, got, err)
		}
	}

	if _, err := ParseSetUpMode("S33"); err == nil {
		t.Error("Expected error for S33")
	}
}
