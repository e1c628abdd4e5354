package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

// TraceReader iterates over the traces of one parameter across the sweeps
// of a session, in measurement order.
type TraceReader interface {
	// Session returns the session this reader is accessing.
	Session() *Session

	// Next advances to the next trace. It returns false when there are no
	// more traces or an error occurred.
	Next(context.Context) bool

	// Current returns the current trace. Behaviour after Next returned false
	// is undefined.
	Current() *Trace

	// Error returns the error that stopped the iteration, if any.
	Error() error

	// Close releases the resources of the reader.
	Close() error
}

// ReaderOption configures a SqliteTraceReader
type ReaderOption func(*SqliteTraceReader)

// WithFreqRange limits traces to points between minFreq and maxFreq, in Hz
func WithFreqRange(minFreq, maxFreq float64) ReaderOption {
	return func(r *SqliteTraceReader) {
		r.minFreq = minFreq
		r.maxFreq = maxFreq
	}
}

// WithTimeRange limits the reader to sweeps measured between start and end
func WithTimeRange(start, end time.Time) ReaderOption {
	return func(r *SqliteTraceReader) {
		r.startTime = start.UTC()
		r.endTime = end.UTC()
	}
}

// ReadTraces creates a reader over the traces of parameter in a session.
// The returned reader must be closed after use.
func (s *SqliteStore) ReadTraces(ctx context.Context, sessionID int64, parameter string, opts ...ReaderOption) (*SqliteTraceReader, error) {
	if _, err := s.getReadDB(); err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r := &SqliteTraceReader{
		session:   session,
		parameter: parameter,
		minFreq:   math.Inf(-1),
		maxFreq:   math.Inf(1),
		endTime:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.minFreq > r.maxFreq {
		return nil, fmt.Errorf("min frequency %f is greater than max frequency %f", r.minFreq, r.maxFreq)
	}
	if r.startTime.After(r.endTime) {
		return nil, fmt.Errorf("start time %s is after end time %s", r.startTime, r.endTime)
	}

	r.rows, err = s.readDB.QueryContext(ctx, selectSessionTracesSQL, sessionID, parameter, r.startTime, r.endTime, r.minFreq, r.maxFreq)
	if err != nil {
		return nil, fmt.Errorf("querying traces: %w", err)
	}
	return r, nil
}

// SqliteTraceReader implements TraceReader for the SQLite store. Rows of
// one sweep are grouped into a Trace, the first row of the following
// sweep is kept for the next call.
type SqliteTraceReader struct {
	session   *Session
	parameter string

	minFreq, maxFreq   float64
	startTime, endTime time.Time

	rows    *sql.Rows
	current *Trace
	pending *traceRow
	err     error
}

type traceRow struct {
	sweepID   int64
	timestamp time.Time
	frequency float64
	sample    complex128
}

func (r *SqliteTraceReader) Session() *Session {
	return r.session
}

func (r *SqliteTraceReader) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}

	var t *Trace
	if r.pending != nil {
		t = r.newTrace(r.pending)
		r.pending = nil
	}

	for r.rows.Next() {
		if err := ctx.Err(); err != nil {
			r.err = err
			return false
		}

		row, err := r.scan()
		if err != nil {
			r.err = err
			return false
		}

		switch {
		case t == nil:
			t = r.newTrace(row)
		case row.sweepID == t.SweepID:
			t.Frequency = append(t.Frequency, row.frequency)
			t.Samples = append(t.Samples, row.sample)
		default:
			r.pending = row
			r.current = t
			return true
		}
	}
	if err := r.rows.Err(); err != nil {
		r.err = fmt.Errorf("iterating traces: %w", err)
		return false
	}

	r.current = t
	return t != nil
}

func (r *SqliteTraceReader) newTrace(row *traceRow) *Trace {
	return &Trace{
		SweepID:   row.sweepID,
		Timestamp: row.timestamp,
		Parameter: r.parameter,
		Frequency: []float64{row.frequency},
		Samples:   []complex128{row.sample},
	}
}

func (r *SqliteTraceReader) scan() (*traceRow, error) {
	var row traceRow
	var re, im float64
	if err := r.rows.Scan(&row.sweepID, &row.timestamp, &row.frequency, &re, &im); err != nil {
		return nil, fmt.Errorf("scanning sample: %w", err)
	}
	row.sample = complex(re, im)
	return &row, nil
}

func (r *SqliteTraceReader) Current() *Trace {
	return r.current
}

func (r *SqliteTraceReader) Error() error {
	return r.err
}

func (r *SqliteTraceReader) Close() error {
	return r.rows.Close()
}

var _ TraceReader = (*SqliteTraceReader)(nil)
