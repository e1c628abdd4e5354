package vna_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
	"github.com/roman-kulish/wiltron-vna/internal/vna/vnatest"
)

func newTrigger(t *testing.T) (*vnatest.Session, *vna.SRQTrigger) {
	t.Helper()

	s := vnatest.New(nil)
	if err := s.SetSRQMask("IDLE"); err != nil {
		t.Fatalf("Failed to set mask: %v", err)
	}
	if err := s.SetSRQTimeout(10 * time.Second); err != nil {
		t.Fatalf("Failed to set SRQ timeout: %v", err)
	}
	s.Reset()

	return s, vna.NewSRQTrigger(vna.NewBus(s, nil), "ARM", "GO")
}

func assertRestored(t *testing.T, s *vnatest.Session) {
	t.Helper()

	if mask := s.SRQMask(); mask != "IDLE" {
		t.Errorf("Expected SRQ mask IDLE to be restored, got %q", mask)
	}
	if d := s.SRQTimeout(); d != 10*time.Second {
		t.Errorf("Expected SRQ timeout 10s to be restored, got %s", d)
	}
}

func TestSRQTrigger_Start(t *testing.T) {
	s, trigger := newTrigger(t)

	if err := trigger.Start(); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}

	if mask := s.SRQMask(); mask != "ARM" {
		t.Errorf("Expected arm mask, got %q", mask)
	}
	if d := s.SRQTimeout(); d != vna.SweepSRQTimeout {
		t.Errorf("Expected SRQ timeout %s, got %s", vna.SweepSRQTimeout, d)
	}

	expected := []string{"mask ARM", "srq timeout 2h0m0s", "srq begin", "write GO"}
	events := s.Events()
	if len(events) != len(expected) {
		t.Fatalf("Expected events %v, got %v", expected, events)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("Event %d: expected %q, got %q", i, expected[i], events[i])
		}
	}
}

func TestSRQTrigger_Success(t *testing.T) {
	s, trigger := newTrigger(t)

	if err := trigger.Run(context.Background()); err != nil {
		t.Fatalf("Failed to run: %v", err)
	}

	assertRestored(t, s)
	if trigger.Armed() {
		t.Error("Expected trigger to be disarmed")
	}
}

func TestSRQTrigger_Restart(t *testing.T) {
	s, trigger := newTrigger(t)

	for range 2 {
		if err := trigger.Start(); err != nil {
			t.Fatalf("Failed to start: %v", err)
		}
	}
	if err := trigger.Wait(context.Background()); err != nil {
		t.Fatalf("Failed to wait: %v", err)
	}

	assertRestored(t, s)
	if n := len(s.Writes()); n != 2 {
		t.Errorf("Expected two sweep commands, got %d", n)
	}
}

func TestSRQTrigger_Timeout(t *testing.T) {
	s, trigger := newTrigger(t)
	s.SRQErr = vna.ErrSRQTimeout

	err := trigger.Run(context.Background())
	if !errors.Is(err, vna.ErrSRQTimeout) {
		t.Fatalf("Expected ErrSRQTimeout, got %v", err)
	}

	assertRestored(t, s)
}

func TestSRQTrigger_Cancel(t *testing.T) {
	s, trigger := newTrigger(t)
	s.SRQBlock = true

	if err := trigger.Start(); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := trigger.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if errors.Is(err, vna.ErrSRQTimeout) {
		t.Error("Cancellation must not be reported as SRQ timeout")
	}

	assertRestored(t, s)
}

func TestSRQTrigger_WaitWithoutStart(t *testing.T) {
	_, trigger := newTrigger(t)

	if err := trigger.Wait(context.Background()); !errors.Is(err, vna.ErrNotArmed) {
		t.Errorf("Expected ErrNotArmed, got %v", err)
	}
}

func TestSRQTrigger_ClearOnComplete(t *testing.T) {
	s, trigger := newTrigger(t)
	trigger.ClearOnComplete = true
	trigger.RestoreMask = "CSB SRQ 128"

	if err := trigger.Run(context.Background()); err != nil {
		t.Fatalf("Failed to run: %v", err)
	}

	events := s.Events()
	var cleared bool
	for _, e := range events {
		if e == "clear" {
			cleared = true
		}
	}
	if !cleared {
		t.Errorf("Expected device clear, got events %v", events)
	}
	if mask := s.SRQMask(); mask != "CSB SRQ 128" {
		t.Errorf("Expected restore mask, got %q", mask)
	}
}

func TestSRQTrigger_StartFailureRestores(t *testing.T) {
	s, trigger := newTrigger(t)
	s.Fail = map[string]error{"GO": errors.New("bus error")}

	if err := trigger.Start(); err == nil {
		t.Fatal("Expected start to fail")
	}

	assertRestored(t, s)
	if trigger.Armed() {
		t.Error("Expected trigger to be disarmed after failed start")
	}
}
