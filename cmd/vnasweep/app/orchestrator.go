package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/storage"
	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

// WithSweeps sets the number of sweeps to measure, 0 runs until the
// context is cancelled
func WithSweeps(n int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.sweeps = n
	}
}

// WithInterval sets the pause between two sweeps
func WithInterval(d time.Duration) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.interval = d
	}
}

// WithFormat selects raw or corrected trace data
func WithFormat(f vna.Format) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.format = f
	}
}

// Orchestrator triggers sweeps on one analyzer, reads their traces and
// stores them in a measurement session.
type Orchestrator struct {
	device vna.Device
	store  storage.Store
	logger *slog.Logger

	format   vna.Format
	sweeps   int
	interval time.Duration
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(device vna.Device, store storage.Store, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		device: device,
		store:  store,
		logger: logger,
		format: vna.FormatCorrected,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run creates a session and measures until the configured number of sweeps
// is reached or ctx is cancelled. Cancellation is not an error.
func (o *Orchestrator) Run(ctx context.Context, resource string, config any) error {
	caps := o.device.Capabilities()

	settings, err := vna.ReadSettings(o.device)
	if err != nil {
		return fmt.Errorf("reading instrument settings: %w", err)
	}
	o.logSettings(settings)

	sessionID, err := o.store.CreateSession(ctx, caps.Model, resource, config)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	o.logger.Info("session created", slog.Int64("sessionID", sessionID))

	var pause *time.Timer
	if o.interval > 0 {
		pause = time.NewTimer(o.interval)
		pause.Stop()
		defer pause.Stop()
	}

	var n int
	for ; o.sweeps == 0 || n < o.sweeps; n++ {
		if n > 0 && pause != nil {
			pause.Reset(o.interval)
			select {
			case <-ctx.Done():
			case <-pause.C:
			}
		}
		if ctx.Err() != nil {
			break
		}

		if err = o.sweep(ctx, sessionID, settings); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return fmt.Errorf("sweep %d: %w", n+1, err)
		}
	}

	o.logger.Info("measurement finished", slog.Int64("sessionID", sessionID), slog.Int("sweeps", n))
	return nil
}

func (o *Orchestrator) sweep(ctx context.Context, sessionID int64, settings *vna.Settings) error {
	start := time.Now()

	if !o.device.Capabilities().GetData {
		// traces cannot be read back, the sweep is still run for the front panel
		if err := o.device.TriggerSingle(ctx); err != nil {
			return err
		}
		o.logger.Info("sweep complete", slog.Duration("elapsed", time.Since(start)))
		return nil
	}

	data, err := vna.Measure(ctx, o.device, o.format)
	if err != nil {
		return err
	}

	sweepID, err := o.store.StoreSweep(ctx, sessionID, data, settings)
	if err != nil {
		return fmt.Errorf("storing sweep: %w", err)
	}

	o.logger.Info("sweep stored",
		slog.Int64("sweepID", sweepID),
		slog.Int("points", len(data.Frequency)),
		slog.Int("traces", len(data.Traces)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (o *Orchestrator) logSettings(s *vna.Settings) {
	attrs := []any{
		slog.String("identification", s.Identification),
		slog.String("sweepMode", s.SweepMode.String()),
		slog.String("setUp", s.SetUpMode.String()),
		slog.Any("parameters", s.Parameters),
		slog.Int("points", s.SweepPoints),
	}
	if s.FrequencyStart.Valid() && s.FrequencyStop.Valid() {
		attrs = append(attrs,
			slog.String("start", vna.FormatHz(float64(s.FrequencyStart))),
			slog.String("stop", vna.FormatHz(float64(s.FrequencyStop))))
	}
	if s.Z0.Valid() {
		attrs = append(attrs, slog.Float64("z0", float64(s.Z0)))
	}
	o.logger.Info("instrument settings", attrs...)
}
