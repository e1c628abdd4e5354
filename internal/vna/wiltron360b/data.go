package wiltron360b

import (
	"fmt"
	"math"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

type dataSource struct {
	trace   string // S11 or USER1..USER4
	channel int    // display channel holding the trace on a four channel display
	inverse bool   // set up as the reciprocal ratio
}

var dataSources = map[string]dataSource{
	"S1,1":     {"S11", 1, false},
	"S2,1":     {"S21", 2, false},
	"S1,2":     {"S12", 3, false},
	"S2,2":     {"S22", 4, false},
	"b1/b2_p1": {"USER1", 1, true},
	"b2/b1_p2": {"USER4", 4, false},
	"a1_p1":    {"USER1", 1, false},
	"b1_p1":    {"USER2", 2, false},
	"b2_p1":    {"USER3", 3, false},
	"a2_p1":    {"USER4", 4, false},
	"a1_p2":    {"USER1", 1, false},
	"b1_p2":    {"USER2", 2, false},
	"b2_p2":    {"USER3", 3, false},
	"a2_p2":    {"USER4", 4, false},
	"a1/b1_p2": {"USER1", 1, true},
	"a2/b2_p1": {"USER4", 4, true},
}

// GetData reads the traces of the current set-up. S-parameters honour f;
// receiver and ratio parameters are always read uncorrected.
func (d *Device) GetData(f vna.Format) (*vna.Data, error) {
	if len(d.parameters) == 0 {
		return nil, fmt.Errorf("get data: no set-up selected")
	}

	freq, err := d.FrequencyList()
	if err != nil {
		return nil, fmt.Errorf("frequency list: %w", err)
	}
	z0, err := d.Z0()
	if err != nil {
		return nil, fmt.Errorf("Z0: %w", err)
	}
	z0 = math.Round(z0*1000) / 1000

	data := vna.Data{
		Format:    f,
		Timestamp: time.Now(),
		Frequency: freq,
		Ports:     vna.CommonPorts(d.parameters),
		Traces:    make([]vna.ParameterData, 0, len(d.parameters)),
	}
	data.PortZr = make([]complex128, len(data.Ports))
	for i := range data.PortZr {
		data.PortZr[i] = complex(z0, 0)
	}

	for _, p := range d.parameters {
		src, ok := dataSources[p.Name()]
		if !ok {
			return nil, vna.Unsupported("data transfer of " + p.Name())
		}

		if err = d.bus.Write(d.outputCommand(p, src, f)); err != nil {
			return nil, err
		}
		block, err := d.bus.ReadBytes()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		samples, err := vna.Form3Samples(block, len(freq), src.inverse)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}

		data.Traces = append(data.Traces, vna.ParameterData{Parameter: p, Samples: samples})
	}

	return &data, nil
}

func (d *Device) outputCommand(p vna.Parameter, src dataSource, f vna.Format) string {
	if p.IsSParameter() && f == vna.FormatCorrected {
		return src.trace + ";FORM3;OUTPDATA"
	}

	channel := 1
	if d.disp4p {
		channel = src.channel
	}
	return fmt.Sprintf("%s;FORM3;OUTPRAW%d", src.trace, channel)
}
