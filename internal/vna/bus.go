package vna

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Bus wraps a Session with command logging and typed reply parsing
type Bus struct {
	session Session
	logger  *slog.Logger
}

// NewBus creates a Bus over s. A nil logger discards output.
func NewBus(s Session, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger
	}
	return &Bus{session: s, logger: logger}
}

// Session returns the underlying session
func (b *Bus) Session() Session {
	return b.session
}

// Logger returns the bus logger
func (b *Bus) Logger() *slog.Logger {
	return b.logger
}

// Write sends cmd
func (b *Bus) Write(cmd string) error {
	b.logger.Debug("write", slog.String("cmd", cmd))
	if err := b.session.Write(cmd); err != nil {
		return fmt.Errorf("write %q: %w", cmd, err)
	}
	return nil
}

// Writes sends cmds in order, stopping at the first error
func (b *Bus) Writes(cmds ...string) error {
	for _, cmd := range cmds {
		if err := b.Write(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) WriteBytes(p []byte) error {
	b.logger.Debug("write bytes", slog.Int("size", len(p)))
	if err := b.session.WriteBytes(p); err != nil {
		return fmt.Errorf("write %d bytes: %w", len(p), err)
	}
	return nil
}

func (b *Bus) ReadBytes() ([]byte, error) {
	p, err := b.session.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("read bytes: %w", err)
	}
	b.logger.Debug("read bytes", slog.Int("size", len(p)))
	return p, nil
}

// Query sends cmd and returns the trimmed reply
func (b *Bus) Query(cmd string) (string, error) {
	reply, err := b.session.Query(cmd)
	if err != nil {
		return "", fmt.Errorf("query %q: %w", cmd, err)
	}
	reply = strings.TrimSpace(reply)
	b.logger.Debug("query", slog.String("cmd", cmd), slog.String("reply", reply))
	return reply, nil
}

func (b *Bus) QueryFloat(cmd string) (float64, error) {
	reply, err := b.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := ParseFloat(reply)
	if err != nil {
		return 0, fmt.Errorf("query %q: %w", cmd, err)
	}
	return v, nil
}

func (b *Bus) QueryInt(cmd string) (int, error) {
	reply, err := b.Query(cmd)
	if err != nil {
		return 0, err
	}
	n, err := ParseInt(reply)
	if err != nil {
		return 0, fmt.Errorf("query %q: %w", cmd, err)
	}
	return n, nil
}

// QueryLines returns the non-empty lines of a multi-line reply
func (b *Bus) QueryLines(cmd string) ([]string, error) {
	reply, err := b.Query(cmd)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(reply, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// QueryFloats parses every line of a multi-line reply
func (b *Bus) QueryFloats(cmd string) ([]float64, error) {
	lines, err := b.QueryLines(cmd)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(lines))
	for i, line := range lines {
		if values[i], err = ParseFloat(line); err != nil {
			return nil, fmt.Errorf("query %q: line %d: %w", cmd, i+1, err)
		}
	}
	return values, nil
}

// WithTimeouts runs fn with both the I/O and the SRQ timeout set to d and
// restores the previous values afterwards, also when fn fails.
func (b *Bus) WithTimeouts(d time.Duration, fn func() error) (err error) {
	timeout, srqTimeout := b.session.Timeout(), b.session.SRQTimeout()

	if err = b.session.SetTimeout(d); err != nil {
		return fmt.Errorf("set timeout: %w", err)
	}
	if err = b.session.SetSRQTimeout(d); err != nil {
		return errors.Join(fmt.Errorf("set SRQ timeout: %w", err), b.session.SetTimeout(timeout))
	}

	defer func() {
		err = errors.Join(err, b.session.SetTimeout(timeout), b.session.SetSRQTimeout(srqTimeout))
	}()

	return fn()
}
