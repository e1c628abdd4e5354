package vna

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is wrapped by every UnsupportedError
	ErrUnsupported = errors.New("operation not supported by this model")

	// ErrSRQTimeout is returned when the sweep-complete service request did not arrive in time
	ErrSRQTimeout = errors.New("SRQ wait timed out")

	// ErrNotArmed is returned by TriggerSingleWait without a preceding TriggerSingleStart
	ErrNotArmed = errors.New("trigger is not armed")
)

// IdentificationError is returned on open when the connected instrument is not the expected model
type IdentificationError struct {
	Expected string
	Got      string
}

func (e *IdentificationError) Error() string {
	return fmt.Sprintf("instrument identification %q does not match model %s", e.Got, e.Expected)
}

// UnsupportedError names an operation or mode the model has no mapping for
type UnsupportedError struct {
	What string
}

func (e *UnsupportedError) Error() string {
	return e.What + ": " + ErrUnsupported.Error()
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Unsupported returns an UnsupportedError for what
func Unsupported(what string) error {
	return &UnsupportedError{What: what}
}

// ProtocolError is returned for replies the driver cannot interpret
type ProtocolError struct {
	Op  string
	Msg string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s: %s", e.Op, e.Msg)
}

func protocolErrorf(op, format string, args ...any) error {
	return &ProtocolError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
