// Package vnatest provides a scripted vna.Session for driver tests.
package vnatest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

// ErrNoReply is returned by Query for commands without a scripted reply
var ErrNoReply = errors.New("vnatest: no reply scripted")

// Session records everything a driver sends and answers queries from a script.
// The zero value is ready to use.
type Session struct {
	mu sync.Mutex

	// Replies maps a query command to its reply
	Replies map[string]string
	// Handler, when set, is consulted before Replies. It can keep state
	// across calls, e.g. to emulate a segment table editor.
	Handler func(cmd string) (reply string, ok bool)
	// Blocks are returned by ReadBytes in order
	Blocks [][]byte
	// Fail makes Write or Query fail for the given command
	Fail map[string]error

	// SRQErr is returned by SRQWait. When SRQBlock is set SRQWait instead
	// blocks until ctx is done.
	SRQErr   error
	SRQBlock bool

	writes   []string
	binaries [][]byte
	events   []string

	timeout    time.Duration
	srqTimeout time.Duration
	srqMask    string
	masks      []string
	armed      bool
	closed     bool
}

// New returns a Session answering the given query replies
func New(replies map[string]string) *Session {
	return &Session{Replies: replies}
}

func (s *Session) Write(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(cmd); err != nil {
		return err
	}
	s.writes = append(s.writes, cmd)
	s.events = append(s.events, "write "+cmd)
	if s.Handler != nil {
		s.Handler(cmd)
	}
	return nil
}

func (s *Session) WriteBytes(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("vnatest: session closed")
	}
	s.binaries = append(s.binaries, slices.Clone(b))
	s.events = append(s.events, fmt.Sprintf("write %d bytes", len(b)))
	return nil
}

func (s *Session) Query(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(cmd); err != nil {
		return "", err
	}
	s.events = append(s.events, "query "+cmd)
	if s.Handler != nil {
		if reply, ok := s.Handler(cmd); ok {
			return reply, nil
		}
	}
	if reply, ok := s.Replies[cmd]; ok {
		return reply, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNoReply, cmd)
}

func (s *Session) ReadBytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Blocks) == 0 {
		return nil, errors.New("vnatest: no block scripted")
	}
	b := s.Blocks[0]
	s.Blocks = s.Blocks[1:]
	s.events = append(s.events, fmt.Sprintf("read %d bytes", len(b)))
	return b, nil
}

func (s *Session) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

func (s *Session) SetTimeout(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
	s.events = append(s.events, "timeout "+d.String())
	return nil
}

func (s *Session) SRQMask() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srqMask
}

func (s *Session) SetSRQMask(mask string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(mask); err != nil {
		return err
	}
	s.srqMask = mask
	s.masks = append(s.masks, mask)
	s.events = append(s.events, "mask "+mask)
	return nil
}

func (s *Session) SRQTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srqTimeout
}

func (s *Session) SetSRQTimeout(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.srqTimeout = d
	s.events = append(s.events, "srq timeout "+d.String())
	return nil
}

func (s *Session) SRQBegin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
	s.events = append(s.events, "srq begin")
	return nil
}

func (s *Session) SRQWait(ctx context.Context) error {
	s.mu.Lock()
	armed, block, err := s.armed, s.SRQBlock, s.SRQErr
	s.armed = false
	s.events = append(s.events, "srq wait")
	s.mu.Unlock()

	if !armed {
		return errors.New("vnatest: SRQ wait without SRQ begin")
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "clear")
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.events = append(s.events, "close")
	return nil
}

// Writes returns the commands written so far
func (s *Session) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.writes)
}

// Binaries returns the binary blocks written so far
func (s *Session) Binaries() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.binaries)
}

// Masks returns every SRQ mask set so far, in order
func (s *Session) Masks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.masks)
}

// Events returns a log of every session call
func (s *Session) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Reset forgets recorded calls, keeping the script
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes, s.binaries, s.events, s.masks = nil, nil, nil, nil
}

// HasWrite reports whether cmd was written
func (s *Session) HasWrite(cmd string) bool {
	return slices.Contains(s.Writes(), cmd)
}

// Dump returns the event log, one call per line
func (s *Session) Dump() string {
	return strings.Join(s.Events(), "\n")
}

func (s *Session) fail(cmd string) error {
	if s.closed {
		return errors.New("vnatest: session closed")
	}
	if err, ok := s.Fail[cmd]; ok {
		return err
	}
	return nil
}

var _ vna.Session = (*Session)(nil)
