package storage

import (
	"time"
)

// Session is one measurement run against a single instrument
type Session struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"startTime"`
	Model     string    `json:"model"`            // instrument model, e.g. "360B"
	Resource  string    `json:"resource"`         // session resource the instrument was opened on
	Config    *string   `json:"config,omitempty"` // measurement configuration in JSON format
}

// Sweep is the metadata of one stored measurement
type Sweep struct {
	ID         int64              `json:"id"`
	SessionID  int64              `json:"sessionID"`
	Timestamp  time.Time          `json:"timestamp"`
	Format     string             `json:"format"` // "raw" or "corrected"
	Points     int                `json:"points"`
	Parameters []string           `json:"parameters"`
	Settings   *string            `json:"settings,omitempty"` // instrument settings snapshot in JSON format
	PortZr     map[int]complex128 `json:"-"`
}

// Trace is the stored trace of one parameter of a sweep
type Trace struct {
	SweepID   int64        `json:"sweepID"`
	Timestamp time.Time    `json:"timestamp"`
	Parameter string       `json:"parameter"`
	Frequency []float64    `json:"frequency"` // Hz
	Samples   []complex128 `json:"-"`
}
