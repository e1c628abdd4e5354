package app

import (
	"math"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/storage"
	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

// Waterfall holds the magnitude of one parameter per sweep, one row per
// sweep in measurement order
type Waterfall struct {
	Parameter                    string
	Width, Height                int
	FrequencyMin, FrequencyMax   float64
	TimestampStart, TimestampEnd time.Time
	BoundsTracker                *SmoothBounds

	Rows       [][]float64 // dB
	Timestamps []time.Time // one per row
}

func NewWaterfall(parameter string, b *SmoothBounds) *Waterfall {
	return &Waterfall{
		Parameter:     parameter,
		FrequencyMin:  math.MaxFloat64,
		BoundsTracker: b,
	}
}

// Update appends the trace as a new row
func (w *Waterfall) Update(trace *storage.Trace) {
	if len(trace.Frequency) == 0 {
		return
	}

	w.Width = max(w.Width, len(trace.Samples))
	w.Height++

	w.FrequencyMin = min(w.FrequencyMin, trace.Frequency[0])
	w.FrequencyMax = max(w.FrequencyMax, trace.Frequency[len(trace.Frequency)-1])

	if w.TimestampStart.IsZero() || w.TimestampStart.After(trace.Timestamp) {
		w.TimestampStart = trace.Timestamp
	}
	if w.TimestampEnd.IsZero() || w.TimestampEnd.Before(trace.Timestamp) {
		w.TimestampEnd = trace.Timestamp
	}

	levels := make([]float64, len(trace.Samples))
	for i, z := range trace.Samples {
		levels[i] = vna.DB(z)
	}
	w.BoundsTracker.Update(levels)

	w.Rows = append(w.Rows, levels)
	w.Timestamps = append(w.Timestamps, trace.Timestamp)
}

// Empty reports whether no trace was added
func (w *Waterfall) Empty() bool {
	return w.Height == 0
}
