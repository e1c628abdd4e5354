package vna

import (
	"context"
	"time"
)

// Session is a message-based instrument session (VISA/GPIB-like).
// Drivers use nothing beyond these primitives.
type Session interface {
	// Write sends an ASCII command
	Write(cmd string) error

	// WriteBytes sends a binary block, e.g. a saved front-panel state
	WriteBytes(b []byte) error

	// Query sends cmd and returns the reply line with the terminator removed
	Query(cmd string) (string, error)

	// ReadBytes reads one binary reply
	ReadBytes() ([]byte, error)

	Timeout() time.Duration
	SetTimeout(d time.Duration) error

	// SRQMask returns the command that configures the instrument's service request mask
	SRQMask() string

	// SetSRQMask sends mask, an SRQ mask command, and remembers it
	SetSRQMask(mask string) error

	SRQTimeout() time.Duration
	SetSRQTimeout(d time.Duration) error

	// SRQBegin arms a wait for the next service request
	SRQBegin() error

	// SRQWait blocks until the armed service request arrives. It returns
	// ErrSRQTimeout when SRQTimeout elapses first and ctx.Err() on cancellation.
	SRQWait(ctx context.Context) error

	// Clear sends a selected device clear
	Clear() error

	Close() error
}
