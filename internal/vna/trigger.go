package vna

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SweepSRQTimeout bounds the wait for a single sweep to complete
const SweepSRQTimeout = 2 * time.Hour

// SRQTrigger implements the single sweep handshake: arm the sweep-complete
// service request, start the sweep, then wait for the request.
type SRQTrigger struct {
	bus *Bus

	// ArmMask is the SRQ mask command enabling the sweep-complete request
	ArmMask string
	// Command starts a single sweep
	Command string
	// RestoreMask, when set, is sent on completion instead of the mask
	// that was active at start
	RestoreMask string
	// ClearOnComplete sends a device clear after a successful wait
	ClearOnComplete bool

	armed      bool
	mask       string
	srqTimeout time.Duration
}

// NewSRQTrigger creates a trigger that arms armMask and starts the sweep with command
func NewSRQTrigger(bus *Bus, armMask, command string) *SRQTrigger {
	return &SRQTrigger{
		bus:     bus,
		ArmMask: armMask,
		Command: command,
	}
}

// Armed reports whether a sweep was started and not yet waited for
func (t *SRQTrigger) Armed() bool {
	return t.armed
}

// Start arms the service request and issues the sweep command
func (t *SRQTrigger) Start() error {
	s := t.bus.Session()

	// a restart keeps the configuration saved before the first Start
	rearm := t.armed
	if !rearm {
		t.mask, t.srqTimeout = s.SRQMask(), s.SRQTimeout()
		if t.RestoreMask != "" {
			t.mask = t.RestoreMask
		}
	}

	if err := s.SetSRQMask(t.ArmMask); err != nil {
		err = fmt.Errorf("set SRQ mask %q: %w", t.ArmMask, err)
		if rearm {
			return t.abort(err)
		}
		return err
	}

	// from here on the prior configuration has to be put back on failure
	t.armed = true

	if err := s.SetSRQTimeout(SweepSRQTimeout); err != nil {
		return t.abort(fmt.Errorf("set SRQ timeout: %w", err))
	}
	if err := s.SRQBegin(); err != nil {
		return t.abort(fmt.Errorf("SRQ begin: %w", err))
	}
	if err := t.bus.Write(t.Command); err != nil {
		return t.abort(err)
	}

	t.bus.Logger().Debug("sweep started", slog.String("cmd", t.Command))
	return nil
}

// Wait blocks until the sweep-complete request, the SRQ timeout or ctx.
// The prior SRQ mask and timeout are restored in every case.
func (t *SRQTrigger) Wait(ctx context.Context) (err error) {
	if !t.armed {
		return ErrNotArmed
	}

	defer func() {
		err = errors.Join(err, t.restore())
	}()

	start := time.Now()
	if err = t.bus.Session().SRQWait(ctx); err != nil {
		if errors.Is(err, ErrSRQTimeout) {
			return ErrSRQTimeout
		}
		return fmt.Errorf("SRQ wait: %w", err)
	}

	t.bus.Logger().Debug("sweep complete", slog.Duration("elapsed", time.Since(start)))

	if t.ClearOnComplete {
		if err = t.bus.Session().Clear(); err != nil {
			return fmt.Errorf("device clear: %w", err)
		}
	}
	return nil
}

// Run is Start followed by Wait
func (t *SRQTrigger) Run(ctx context.Context) error {
	if err := t.Start(); err != nil {
		return err
	}
	return t.Wait(ctx)
}

func (t *SRQTrigger) abort(err error) error {
	return errors.Join(err, t.restore())
}

func (t *SRQTrigger) restore() error {
	t.armed = false

	s := t.bus.Session()
	var errs []error
	if err := s.SetSRQMask(t.mask); err != nil {
		errs = append(errs, fmt.Errorf("restore SRQ mask: %w", err))
	}
	if err := s.SetSRQTimeout(t.srqTimeout); err != nil {
		errs = append(errs, fmt.Errorf("restore SRQ timeout: %w", err))
	}
	return errors.Join(errs...)
}
