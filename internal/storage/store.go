package storage

import (
	"context"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

// Store manages measurement sessions and the sweeps recorded in them.
// Every write is atomic: a sweep is stored with all its traces or not at all.
type Store interface {
	// CreateSession starts a new measurement session and returns its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - model: Instrument model (e.g., "360", "360B")
	//   - resource: Resource the instrument session was opened on
	//   - config: Optional measurement configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - sessionID: Unique identifier for the created session
	//   - error: If session creation fails or context is cancelled
	CreateSession(ctx context.Context, model, resource string, config any) (sessionID int64, err error)

	// Session retrieves a measurement session by its ID.
	Session(ctx context.Context, id int64) (session *Session, err error)

	// Sessions returns all measurement sessions ordered by start time.
	Sessions(ctx context.Context) (sessions []*Session, err error)

	// StoreSweep saves one measurement with all its traces and port impedances.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - sessionID: ID of the session this sweep belongs to
	//   - data: Measurement; every trace must have one sample per frequency point
	//   - settings: Optional instrument settings snapshot, encoded like config in CreateSession
	//
	// Returns:
	//   - sweepID: Unique identifier for the stored sweep
	//   - error: If data is inconsistent, storage fails or context is cancelled
	StoreSweep(ctx context.Context, sessionID int64, data *vna.Data, settings any) (sweepID int64, err error)

	// Sweeps returns the sweeps of a session in measurement order.
	Sweeps(ctx context.Context, sessionID int64) (sweeps []*Sweep, err error)

	// Trace returns the trace of the named parameter of a sweep. It returns
	// ErrNoData if the sweep did not measure the parameter.
	Trace(ctx context.Context, sweepID int64, parameter string) (trace *Trace, err error)

	// Close releases all database connections. It is safe to call Close
	// multiple times.
	Close() error
}
