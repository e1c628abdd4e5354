// Package gpib implements vna.Session over a Prologix GPIB-USB controller.
package gpib

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gotmc/prologix"
	"github.com/gotmc/prologix/driver/vcp"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

const (
	esc = 0x1b

	blockHeaderSize = 4
)

// ErrBadBlock is returned when a binary reply does not start with a "#A" header
var ErrBadBlock = errors.New("malformed binary block")

// Port is the serial connection to the controller
type Port interface {
	io.ReadWriter
	Flush() error
	Close() error
}

// Controller is the subset of *prologix.Controller the session uses
type Controller interface {
	Command(format string, a ...any) error
	Query(cmd string) (string, error)
	ServiceRequest() (bool, error)
	ClearDevice() error
	FrontPanel(local bool) error
}

// WithLogger sets the logger for the session
func WithLogger(logger *slog.Logger) func(s *Session) {
	return func(s *Session) {
		s.logger = logger.With(slog.String("gpib", s.resource))
	}
}

// Session is a vna.Session over a Prologix controller. ASCII commands and
// queries go through the controller, binary blocks are exchanged directly
// on the serial port.
type Session struct {
	resource string
	port     Port
	reader   *bufio.Reader
	ctrl     Controller

	timeout      time.Duration
	srqTimeout   time.Duration
	srqMask      string
	pollInterval time.Duration
	writeDelay   time.Duration
	armed        bool

	logger *slog.Logger
}

// Open opens the controller serial port and addresses the configured instrument
func Open(cfg Config, options ...func(s *Session)) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	port, err := vcp.NewVCP(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	ctrl, err := prologix.NewController(port, cfg.Address, cfg.ClearOnOpen)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create controller: %w", err), port.Close())
	}

	s, err := NewSession(cfg, port, ctrl, options...)
	if err != nil {
		return nil, errors.Join(err, port.Close())
	}
	return s, nil
}

// NewSession creates a Session from an open port and controller
func NewSession(cfg Config, port Port, ctrl Controller, options ...func(s *Session)) (*Session, error) {
	s := Session{
		resource:     cfg.String(),
		port:         port,
		reader:       bufio.NewReader(port),
		ctrl:         ctrl,
		pollInterval: cfg.pollInterval(),
		writeDelay:   cfg.WriteDelay.Duration(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&s)
	}

	if cfg.SecondaryAddress != nil {
		cmd := fmt.Sprintf("++addr %d %d", cfg.Address, *cfg.SecondaryAddress)
		if err := s.controllerCommand(cmd); err != nil {
			return nil, err
		}
	}

	if err := s.SetTimeout(cfg.timeout()); err != nil {
		return nil, err
	}
	s.srqTimeout = s.timeout

	return &s, nil
}

func (s *Session) Write(cmd string) error {
	s.delay()
	return s.ctrl.Command("%s", cmd)
}

// WriteBytes sends b as one message, escaping the characters the
// controller would otherwise interpret
func (s *Session) WriteBytes(b []byte) error {
	if _, err := s.port.Write(escape(b)); err != nil {
		return fmt.Errorf("gpib: write block: %w", err)
	}
	return nil
}

func (s *Session) Query(cmd string) (string, error) {
	s.delay()
	return s.ctrl.Query(cmd)
}

// delay holds off instrument commands for slow listeners
func (s *Session) delay() {
	if s.writeDelay > 0 {
		time.Sleep(s.writeDelay)
	}
}

// ReadBytes reads one "#A" binary block including its header
func (s *Session) ReadBytes() ([]byte, error) {
	if err := s.controllerCommand("++read eoi"); err != nil {
		return nil, err
	}
	defer s.discard()

	return readBlock(s.reader)
}

func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// SetTimeout sets the controller read timeout. Values above MaxReadTimeout
// are clipped, the controller does not accept longer ones.
func (s *Session) SetTimeout(d time.Duration) error {
	ms := min(max(d.Milliseconds(), 1), MaxReadTimeout.Milliseconds())
	if err := s.controllerCommand(fmt.Sprintf("++read_tmo_ms %d", ms)); err != nil {
		return err
	}
	s.timeout = d
	return nil
}

func (s *Session) SRQMask() string {
	return s.srqMask
}

// SetSRQMask sends the mask command to the instrument
func (s *Session) SetSRQMask(mask string) error {
	if err := s.Write(mask); err != nil {
		return err
	}
	s.srqMask = mask
	return nil
}

func (s *Session) SRQTimeout() time.Duration {
	return s.srqTimeout
}

func (s *Session) SetSRQTimeout(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("gpib: SRQ timeout must be positive: %s", d)
	}
	s.srqTimeout = d
	return nil
}

func (s *Session) SRQBegin() error {
	s.armed = true
	return nil
}

// SRQWait polls the SRQ line until it is asserted, then serial polls the
// instrument to release it
func (s *Session) SRQWait(ctx context.Context) error {
	if !s.armed {
		return fmt.Errorf("gpib: SRQ wait without SRQ begin")
	}
	s.armed = false

	deadline := time.NewTimer(s.srqTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		asserted, err := s.ctrl.ServiceRequest()
		if err != nil {
			return fmt.Errorf("gpib: poll SRQ: %w", err)
		}
		if asserted {
			status, err := s.serialPoll()
			if err != nil {
				return err
			}
			s.logger.Debug("service request", slog.Int("status", status))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return vna.ErrSRQTimeout
		case <-ticker.C:
		}
	}
}

func (s *Session) Clear() error {
	return s.ctrl.ClearDevice()
}

// Close returns the instrument to local control and closes the serial port
func (s *Session) Close() error {
	var errs []error
	if err := s.ctrl.FrontPanel(true); err != nil {
		errs = append(errs, fmt.Errorf("gpib: front panel: %w", err))
	}
	if err := s.port.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("gpib: flush: %w", err))
	}
	if err := s.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("gpib: close: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Session) serialPoll() (int, error) {
	if err := s.controllerCommand("++spoll"); err != nil {
		return 0, err
	}
	defer s.discard()

	line, err := s.reader.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("gpib: serial poll: %w", err)
	}

	var status int
	if _, err = fmt.Sscanf(strings.TrimSpace(line), "%d", &status); err != nil {
		return 0, fmt.Errorf("gpib: serial poll status %q: %w", line, err)
	}
	return status, nil
}

// discard drops what was buffered beyond a reply, e.g. the terminator after
// a block, so the controller's own reads start clean
func (s *Session) discard() {
	_, _ = s.reader.Discard(s.reader.Buffered())
}

func (s *Session) controllerCommand(cmd string) error {
	if _, err := io.WriteString(s.port, cmd+"\n"); err != nil {
		return fmt.Errorf("gpib: %s: %w", cmd, err)
	}
	return nil
}

// escape prefixes CR, LF, ESC and '+' with ESC and appends the terminator
func escape(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/8+1)
	for _, c := range b {
		switch c {
		case '\r', '\n', esc, '+':
			out = append(out, esc)
		}
		out = append(out, c)
	}
	return append(out, '\n')
}

func readBlock(r io.Reader) ([]byte, error) {
	header := make([]byte, blockHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("gpib: read block header: %w", err)
	}
	if header[0] != '#' || header[1] != 'A' {
		return nil, fmt.Errorf("gpib: %w: header % x", ErrBadBlock, header)
	}

	n := int(binary.BigEndian.Uint16(header[2:]))
	block := make([]byte, blockHeaderSize+n)
	copy(block, header)
	if _, err := io.ReadFull(r, block[blockHeaderSize:]); err != nil {
		return nil, fmt.Errorf("gpib: read %d byte block: %w", n, err)
	}
	return block, nil
}

var _ vna.Session = (*Session)(nil)

var _ Controller = (*prologix.Controller)(nil)
