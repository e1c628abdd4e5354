package vna

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"time"
)

// ParameterData is the trace of one measured parameter
type ParameterData struct {
	Parameter Parameter
	Samples   []complex128
}

// Data is one measurement: a frequency grid and one trace per parameter
type Data struct {
	Format    Format
	Timestamp time.Time
	Frequency []float64    // Hz
	Ports     []int        // test ports common to the parameters
	PortZr    []complex128 // reference impedance per port, same order as Ports
	Traces    []ParameterData
}

// Trace returns the trace of the parameter named name
func (d *Data) Trace(name string) (ParameterData, bool) {
	for _, t := range d.Traces {
		if t.Parameter.Name() == name {
			return t, true
		}
	}
	return ParameterData{}, false
}

// Validate checks that every trace has one sample per frequency point
func (d *Data) Validate() error {
	if len(d.Ports) != len(d.PortZr) {
		return fmt.Errorf("vna.Data: %d ports but %d reference impedances", len(d.Ports), len(d.PortZr))
	}
	for _, t := range d.Traces {
		if len(t.Samples) != len(d.Frequency) {
			return fmt.Errorf("vna.Data: %s has %d samples for %d frequency points", t.Parameter, len(t.Samples), len(d.Frequency))
		}
	}
	return nil
}

// DB returns 20*log10(|z|)
func DB(z complex128) float64 {
	return 20 * math.Log10(cmplx.Abs(z))
}

// Measure triggers one sweep, waits for it to complete and reads the traces
// of the current set-up.
func Measure(ctx context.Context, d Device, f Format) (*Data, error) {
	if err := d.TriggerSingle(ctx); err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}

	data, err := d.GetData(f)
	if err != nil {
		return nil, fmt.Errorf("get data: %w", err)
	}
	return data, nil
}
