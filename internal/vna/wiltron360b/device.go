// Package wiltron360b drives the Wiltron 360B vector network analyzer.
package wiltron360b

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

const (
	Model = "360B"

	DefaultTitle   = "VNA Driver - Wiltron 360B"
	DefaultTimeout = 10 * time.Second

	// EditTimeout applies while the sweep mode is read or the segment list edited
	EditTimeout = 20 * time.Second
	// StateTimeout applies while a front panel state is transferred
	StateTimeout = 30 * time.Second

	idleSRQMask  = "CSB SRQ 128"
	sweepSRQMask = "CLES;SRQM 16"
	sweepCommand = "SING"
	testPorts    = 2
)

// WithLogger sets the logger for the device
func WithLogger(logger *slog.Logger) func(d *Device) {
	return func(d *Device) {
		d.logger = logger.With(slog.String("model", Model))
	}
}

// WithTitle sets the title shown on the instrument display
func WithTitle(title string) func(d *Device) {
	return func(d *Device) {
		d.title = title
	}
}

// Device is a Wiltron 360B driver. It is not safe for concurrent use.
type Device struct {
	bus     *vna.Bus
	trigger *vna.SRQTrigger
	logger  *slog.Logger
	title   string

	identification string
	setUpMode      vna.SetUpMode
	parameters     []vna.Parameter
	disp4p         bool
	z0             float64 // cached reference impedance, 0 until read or set
}

// Open identifies the instrument on s and prepares it for remote operation
func Open(s vna.Session, options ...func(d *Device)) (*Device, error) {
	d := Device{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
		title:  DefaultTitle,
	}

	for _, option := range options {
		option(&d)
	}

	d.bus = vna.NewBus(s, d.logger)
	d.trigger = vna.NewSRQTrigger(d.bus, sweepSRQMask, sweepCommand)
	d.trigger.RestoreMask = idleSRQMask
	d.trigger.ClearOnComplete = true

	reply, err := d.bus.Query("OUTPIDEN")
	if err != nil {
		return nil, fmt.Errorf("identification: %w", err)
	}
	idn, _, _ := strings.Cut(reply, "\n")
	idn = strings.TrimSpace(idn)
	if !strings.Contains(idn, Model) {
		return nil, &vna.IdentificationError{Expected: Model, Got: idn}
	}
	d.identification = idn

	if err = s.SetTimeout(DefaultTimeout); err != nil {
		return nil, fmt.Errorf("set timeout: %w", err)
	}
	if err = s.SetSRQMask(idleSRQMask); err != nil {
		return nil, fmt.Errorf("set SRQ mask: %w", err)
	}
	if err = s.SetSRQTimeout(DefaultTimeout); err != nil {
		return nil, fmt.Errorf("set SRQ timeout: %w", err)
	}
	if err = d.bus.Writes(`TITL "`+d.title+`"`, "BACI 0;INTE 80;ENTO"); err != nil {
		return nil, err
	}

	d.logger.Info("instrument opened", slog.String("identification", idn))

	return &d, nil
}

// Close resumes continuous sweeping, returns the instrument to local
// control and closes the session
func (d *Device) Close() error {
	var errs []error
	if err := d.TriggerCont(); err != nil {
		errs = append(errs, err)
	}
	if err := d.bus.Write("CSB SRQ 0 RTL"); err != nil {
		errs = append(errs, err)
	}
	if err := d.bus.Session().Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session: %w", err))
	}
	return errors.Join(errs...)
}

func (d *Device) Identification() string {
	return d.identification
}

func (d *Device) NTestPorts() int {
	return testPorts
}

func (d *Device) Capabilities() vna.Capabilities {
	return vna.Capabilities{
		Model:       Model,
		GetData:     true,
		State:       true,
		Preset:      true,
		SegmentEdit: true,
		Readback:    true,
	}
}

// Preset restores the factory preset. The set-up is forgotten.
func (d *Device) Preset() error {
	d.resetSetUp()
	return d.bus.Write("FACTPRES")
}

// State returns the front panel state as an opaque block
func (d *Device) State() ([]byte, error) {
	if err := d.bus.Write("OFP"); err != nil {
		return nil, err
	}
	state, err := d.bus.ReadBytes()
	if err != nil {
		return nil, err
	}

	d.logger.Debug("state read", slog.String("size", humanize.Bytes(uint64(len(state)))))

	return state, nil
}

// SetState recalls a front panel state returned by State. The set-up is forgotten.
func (d *Device) SetState(state []byte) error {
	d.resetSetUp()

	if err := d.bus.Write("IFP"); err != nil {
		return err
	}

	s := d.bus.Session()
	timeout := s.Timeout()
	if err := s.SetTimeout(StateTimeout); err != nil {
		return fmt.Errorf("set timeout: %w", err)
	}

	err := d.bus.WriteBytes(state)
	if rerr := s.SetTimeout(timeout); rerr != nil {
		err = errors.Join(err, fmt.Errorf("restore timeout: %w", rerr))
	}
	return err
}

func (d *Device) TriggerHold() error {
	return d.bus.Write("HLD")
}

func (d *Device) TriggerCont() error {
	return d.bus.Write("CONT")
}

func (d *Device) TriggerSingleStart() error {
	return d.trigger.Start()
}

// TriggerSingleWait waits for the sweep, clears the device and restores
// the idle SRQ mask and the SRQ timeout
func (d *Device) TriggerSingleWait(ctx context.Context) error {
	return d.trigger.Wait(ctx)
}

func (d *Device) TriggerSingle(ctx context.Context) error {
	return d.trigger.Run(ctx)
}

func (d *Device) resetSetUp() {
	d.setUpMode, d.parameters, d.disp4p = vna.SetUpUnknown, nil, false
}

var _ vna.Device = (*Device)(nil)
