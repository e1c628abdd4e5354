package vna

import (
	"fmt"
	"slices"
	"strconv"
)

const (
	ReceiverA ReceiverType = 'a' // reference receiver
	ReceiverB ReceiverType = 'b' // test receiver
)

// ReceiverType identifies the a (incident) or b (reflected/transmitted) receiver
type ReceiverType byte

func (r ReceiverType) String() string {
	return string(r)
}

// Receiver is a receiver signal at a test port
type Receiver struct {
	Type ReceiverType
	Port int
}

func (r Receiver) String() string {
	return r.Type.String() + strconv.Itoa(r.Port)
}

type parameterKind uint8

const (
	kindSParameter parameterKind = iota + 1
	kindReceiver
	kindRatio
)

// Parameter is a measured quantity: an S-parameter, a single receiver signal
// or a ratio of two receiver signals, with the port that drives the stimulus.
type Parameter struct {
	kind        parameterKind
	numerator   Receiver
	denominator Receiver
	drivePort   int
}

// SParameter returns S<out>,<in>, e.g. SParameter(2, 1) is "S2,1"
func SParameter(out, in int) Parameter {
	return Parameter{
		kind:      kindSParameter,
		numerator: Receiver{Type: ReceiverB, Port: out},
		drivePort: in,
	}
}

// ReceiverParameter returns a single receiver signal with the source at drivePort
func ReceiverParameter(t ReceiverType, port, drivePort int) Parameter {
	return Parameter{
		kind:      kindReceiver,
		numerator: Receiver{Type: t, Port: port},
		drivePort: drivePort,
	}
}

// Ratio returns the receiver ratio num/den with the source at drivePort
func Ratio(numType ReceiverType, numPort int, denType ReceiverType, denPort int, drivePort int) Parameter {
	return Parameter{
		kind:        kindRatio,
		numerator:   Receiver{Type: numType, Port: numPort},
		denominator: Receiver{Type: denType, Port: denPort},
		drivePort:   drivePort,
	}
}

// Name returns the canonical parameter name, e.g. "S2,1", "b1_p1" or "a1/b1_p2"
func (p Parameter) Name() string {
	switch p.kind {
	case kindSParameter:
		return fmt.Sprintf("S%d,%d", p.numerator.Port, p.drivePort)
	case kindReceiver:
		return fmt.Sprintf("%s_p%d", p.numerator, p.drivePort)
	case kindRatio:
		return fmt.Sprintf("%s/%s_p%d", p.numerator, p.denominator, p.drivePort)
	default:
		return ""
	}
}

func (p Parameter) String() string {
	return p.Name()
}

// IsZero reports whether p is the zero Parameter
func (p Parameter) IsZero() bool {
	return p.kind == 0
}

// IsSParameter reports whether p is an S-parameter
func (p Parameter) IsSParameter() bool {
	return p.kind == kindSParameter
}

// DrivePort returns the port driving the stimulus
func (p Parameter) DrivePort() int {
	return p.drivePort
}

// Ports returns the test ports involved in the measurement of p
func (p Parameter) Ports() []int {
	ports := []int{p.numerator.Port, p.drivePort}
	if p.kind == kindRatio {
		ports = append(ports, p.denominator.Port)
	}
	slices.Sort(ports)
	return slices.Compact(ports)
}

// CommonPorts returns the sorted union of ports used by the parameters
func CommonPorts(params []Parameter) []int {
	var ports []int
	for _, p := range params {
		ports = append(ports, p.Ports()...)
	}
	slices.Sort(ports)
	return slices.Compact(ports)
}

// ParametersFor returns the parameter set a set-up mode measures, in the
// order the drivers read them. The returned slice is a fresh copy.
func ParametersFor(mode SetUpMode) ([]Parameter, error) {
	params, ok := setUpParameters[mode]
	if !ok {
		return nil, Unsupported("set-up mode " + mode.String())
	}
	return slices.Clone(params), nil
}

// ModeForParameters returns the set-up mode that measures exactly params,
// in any order.
func ModeForParameters(params []Parameter) (SetUpMode, error) {
	want := names(params)
	slices.Sort(want)
	for mode := SetUpS11; mode <= SetUpXx; mode++ {
		got := names(setUpParameters[mode])
		slices.Sort(got)
		if slices.Equal(want, got) {
			return mode, nil
		}
	}
	return SetUpUnknown, Unsupported(fmt.Sprintf("parameter set %v", names(params)))
}

func names(params []Parameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name()
	}
	return out
}

var (
	s11 = SParameter(1, 1)
	s21 = SParameter(2, 1)
	s12 = SParameter(1, 2)
	s22 = SParameter(2, 2)

	a1p1 = ReceiverParameter(ReceiverA, 1, 1)
	b1p1 = ReceiverParameter(ReceiverB, 1, 1)
	b2p1 = ReceiverParameter(ReceiverB, 2, 1)
	a2p1 = ReceiverParameter(ReceiverA, 2, 1)
	a1p2 = ReceiverParameter(ReceiverA, 1, 2)
	b1p2 = ReceiverParameter(ReceiverB, 1, 2)
	b2p2 = ReceiverParameter(ReceiverB, 2, 2)
	a2p2 = ReceiverParameter(ReceiverA, 2, 2)
)

var setUpParameters = map[SetUpMode][]Parameter{
	SetUpS11: {s11},
	SetUpS21: {s21},
	SetUpS12: {s12},
	SetUpS22: {s22},
	SetUpSxx: {s11, s21, s12, s22},
	SetUpSwitchTerms: {
		Ratio(ReceiverA, 1, ReceiverB, 1, 2),
		Ratio(ReceiverA, 2, ReceiverB, 2, 1),
	},
	SetUpB1B2P1: {Ratio(ReceiverB, 1, ReceiverB, 2, 1)},
	SetUpB2B1P2: {Ratio(ReceiverB, 2, ReceiverB, 1, 2)},
	SetUpA1P1:   {a1p1},
	SetUpB1P1:   {b1p1},
	SetUpB2P1:   {b2p1},
	SetUpA2P1:   {a2p1},
	SetUpA1P2:   {a1p2},
	SetUpB1P2:   {b1p2},
	SetUpB2P2:   {b2p2},
	SetUpA2P2:   {a2p2},
	SetUpXxP1:   {a1p1, b1p1, b2p1, a2p1},
	SetUpXxP2:   {a1p2, b1p2, b2p2, a2p2},
	SetUpXx: {
		s11, s21, s12, s22,
		a1p1, b1p1, b2p1, a2p1,
		a1p2, b1p2, b2p2, a2p2,
	},
}
