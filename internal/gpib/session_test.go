package gpib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

type fakePort struct {
	in      bytes.Buffer // bytes the instrument sends
	out     bytes.Buffer // bytes written to the controller
	flushed bool
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *fakePort) Flush() error                { p.flushed = true; return nil }
func (p *fakePort) Close() error                { p.closed = true; return nil }

type fakeController struct {
	commands []string
	replies  map[string]string
	srqAfter int // number of polls before SRQ is asserted, -1 for never
	polls    int
	cleared  bool
	local    bool
}

func (c *fakeController) Command(format string, a ...any) error {
	c.commands = append(c.commands, fmt.Sprintf(format, a...))
	return nil
}

func (c *fakeController) Query(cmd string) (string, error) {
	if r, ok := c.replies[cmd]; ok {
		return r, nil
	}
	return "", errors.New("no reply")
}

func (c *fakeController) ServiceRequest() (bool, error) {
	c.polls++
	return c.srqAfter >= 0 && c.polls > c.srqAfter, nil
}

func (c *fakeController) ClearDevice() error { c.cleared = true; return nil }

func (c *fakeController) FrontPanel(local bool) error { c.local = local; return nil }

func newSession(t *testing.T) (*fakePort, *fakeController, *Session) {
	t.Helper()

	port := &fakePort{}
	ctrl := &fakeController{replies: map[string]string{}}
	cfg := Config{
		Port:         "/dev/null",
		Address:      6,
		PollInterval: vna.NewTimeDuration(time.Millisecond),
	}

	s, err := NewSession(cfg, port, ctrl)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	port.out.Reset()

	return port, ctrl, s
}

func TestEscape(t *testing.T) {
	in := []byte{'A', '\r', '\n', esc, '+', 0, 'Z'}
	expected := []byte{'A', esc, '\r', esc, '\n', esc, esc, esc, '+', 0, 'Z', '\n'}

	if got := escape(in); !bytes.Equal(got, expected) {
		t.Errorf("Expected % x, got % x", expected, got)
	}
}

func TestWriteBytes(t *testing.T) {
	port, _, s := newSession(t)

	if err := s.WriteBytes([]byte("a+b")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if got := port.out.String(); got != "a\x1b+b\n" {
		t.Errorf("Unexpected bytes %q", got)
	}
}

func TestReadBytes(t *testing.T) {
	port, _, s := newSession(t)

	block := vna.EncodeForm3([]float64{1, 2})
	port.in.Write(block)
	port.in.WriteString("\n") // terminator after EOI

	got, err := s.ReadBytes()
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if !bytes.Equal(got, block) {
		t.Errorf("Expected block % x, got % x", block, got)
	}
	if port.out.String() != "++read eoi\n" {
		t.Errorf("Expected ++read eoi, got %q", port.out.String())
	}

	// the terminator must not be taken for the next block header
	port.in.Write(block)
	if got, err = s.ReadBytes(); err != nil || !bytes.Equal(got, block) {
		t.Errorf("Expected second block, got % x (%v)", got, err)
	}
}

func TestReadBytes_Errors(t *testing.T) {
	port, _, s := newSession(t)

	port.in.WriteString("1.0E9\n")
	if _, err := s.ReadBytes(); !errors.Is(err, ErrBadBlock) {
		t.Errorf("Expected ErrBadBlock, got %v", err)
	}

	port.in.Reset()
	port.in.Write([]byte{'#', 'A', 0, 16, 1, 2})
	if _, err := s.ReadBytes(); err == nil {
		t.Error("Expected error for truncated block")
	}
}

func TestSetTimeout(t *testing.T) {
	port, _, s := newSession(t)

	_ = s.SetTimeout(500 * time.Millisecond)
	_ = s.SetTimeout(20 * time.Second)

	expected := "++read_tmo_ms 500\n++read_tmo_ms 3000\n"
	if got := port.out.String(); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
	if s.Timeout() != 20*time.Second {
		t.Errorf("Expected requested timeout to be kept, got %s", s.Timeout())
	}
}

func TestSRQMask(t *testing.T) {
	_, ctrl, s := newSession(t)

	if err := s.SetSRQMask("CSB SRQ 128"); err != nil {
		t.Fatalf("Failed to set mask: %v", err)
	}
	if s.SRQMask() != "CSB SRQ 128" {
		t.Errorf("Expected mask to be kept, got %q", s.SRQMask())
	}
	if len(ctrl.commands) != 1 || ctrl.commands[0] != "CSB SRQ 128" {
		t.Errorf("Expected mask command to be sent, got %v", ctrl.commands)
	}
}

func TestSRQWait(t *testing.T) {
	port, ctrl, s := newSession(t)
	ctrl.srqAfter = 3
	port.in.WriteString("80\n")

	_ = s.SetSRQTimeout(time.Second)
	_ = s.SRQBegin()

	if err := s.SRQWait(context.Background()); err != nil {
		t.Fatalf("Failed to wait: %v", err)
	}
	if ctrl.polls != 4 {
		t.Errorf("Expected 4 polls, got %d", ctrl.polls)
	}
	if !strings.Contains(port.out.String(), "++spoll\n") {
		t.Errorf("Expected serial poll, got %q", port.out.String())
	}
}

func TestSRQWait_Timeout(t *testing.T) {
	_, ctrl, s := newSession(t)
	ctrl.srqAfter = -1

	_ = s.SetSRQTimeout(20 * time.Millisecond)
	_ = s.SRQBegin()

	if err := s.SRQWait(context.Background()); !errors.Is(err, vna.ErrSRQTimeout) {
		t.Errorf("Expected ErrSRQTimeout, got %v", err)
	}
}

func TestSRQWait_Cancel(t *testing.T) {
	_, ctrl, s := newSession(t)
	ctrl.srqAfter = -1

	_ = s.SetSRQTimeout(time.Hour)
	_ = s.SRQBegin()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.SRQWait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context deadline, got %v", err)
	}
}

func TestSRQWait_NotArmed(t *testing.T) {
	_, _, s := newSession(t)

	if err := s.SRQWait(context.Background()); err == nil {
		t.Error("Expected error without SRQ begin")
	}
}

func TestClose(t *testing.T) {
	port, ctrl, s := newSession(t)

	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if !ctrl.local || !port.flushed || !port.closed {
		t.Errorf("Expected local control, flush and close: %t %t %t", ctrl.local, port.flushed, port.closed)
	}
}

func TestNewSession_SecondaryAddress(t *testing.T) {
	port := &fakePort{}
	sad := 96
	cfg := Config{Port: "/dev/null", Address: 6, SecondaryAddress: &sad}

	if _, err := NewSession(cfg, port, &fakeController{}); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	expected := "++addr 6 96\n++read_tmo_ms 3000\n"
	if got := port.out.String(); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestWrite_Delay(t *testing.T) {
	port := &fakePort{}
	ctrl := &fakeController{replies: map[string]string{"OID": "360"}}
	cfg := Config{Port: "/dev/null", Address: 6, WriteDelay: vna.NewTimeDuration(20 * time.Millisecond)}

	s, err := NewSession(cfg, port, ctrl)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	start := time.Now()
	if err = s.Write("SQ1"); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if _, err = s.Query("OID"); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Expected at least 40ms for two delayed commands, got %s", elapsed)
	}
	if len(ctrl.commands) != 1 || ctrl.commands[0] != "SQ1" {
		t.Errorf("Expected [SQ1], got %q", ctrl.commands)
	}
}

func TestConfig_Validate(t *testing.T) {
	sad := func(v int) *int { return &v }

	tests := []struct {
		name string
		c    Config
		fail bool
	}{
		{"valid", Config{Port: "/dev/ttyUSB0", Address: 6}, false},
		{"secondary", Config{Port: "/dev/ttyUSB0", Address: 6, SecondaryAddress: sad(96)}, false},
		{"no port", Config{Address: 6}, true},
		{"address", Config{Port: "/dev/ttyUSB0", Address: 31}, true},
		{"bad secondary", Config{Port: "/dev/ttyUSB0", Address: 6, SecondaryAddress: sad(5)}, true},
		{"negative timeout", Config{Port: "/dev/ttyUSB0", Timeout: vna.NewTimeDuration(-time.Second)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.fail && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.fail && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
