package wiltron360b

import (
	"fmt"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

// SegmentTable reads the frequency list segments. The 360B has no per
// segment IF bandwidth, it reads as 0.
func (d *Device) SegmentTable() ([]vna.Segment, error) {
	n, err := d.bus.QueryInt("NUMS?")
	if err != nil {
		return nil, err
	}

	segments := make([]vna.Segment, n)
	for i := range segments {
		if err = d.bus.Write(fmt.Sprintf("SEDI%d", i+1)); err != nil {
			return nil, err
		}

		s := &segments[i]
		for _, q := range []struct {
			cmd string
			dst *float64
		}{
			{"STAR;OUTPACTI", &s.Start},
			{"STOP;OUTPACTI", &s.Stop},
			{"STPSIZE;OUTPACTI", &s.Step},
		} {
			if *q.dst, err = d.bus.QueryFloat(q.cmd); err != nil {
				return nil, fmt.Errorf("segment %d: %w", i+1, err)
			}
		}
	}
	return segments, nil
}

// SetSegmentTable replaces the frequency list. The sweep mode active before
// the edit is restored afterwards.
func (d *Device) SetSegmentTable(segments []vna.Segment) error {
	mode, err := d.SweepMode()
	if err != nil {
		return err
	}

	err = d.bus.WithTimeouts(EditTimeout, func() error {
		if err := d.bus.Writes("EDITLIST", "CLEL"); err != nil {
			return err
		}
		for i, s := range segments {
			err := d.bus.Writes(
				"SADD",
				"STAR "+vna.FormatE12(s.Start),
				"STOP "+vna.FormatE12(s.Stop),
				"STPSIZE "+vna.FormatE12(s.Step),
				"SDON",
			)
			if err != nil {
				return fmt.Errorf("segment %d: %w", i+1, err)
			}
		}
		return d.bus.Writes("DUPD", "EDITDONE")
	})
	if err != nil {
		return err
	}

	return d.SetSweepMode(mode)
}
