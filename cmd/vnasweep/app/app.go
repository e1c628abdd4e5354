package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/gpib"
	"github.com/roman-kulish/wiltron-vna/internal/storage"
	"github.com/roman-kulish/wiltron-vna/internal/vna"
	"github.com/roman-kulish/wiltron-vna/internal/vna/wiltron360"
	"github.com/roman-kulish/wiltron-vna/internal/vna/wiltron360b"
)

const (
	storageDir = "data"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	session, err := gpib.Open(config.Instrument.GPIB, gpib.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open GPIB session: %w", err)
	}

	device, err := openDevice(session, &config.Instrument, logger)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to open instrument: %w", err), session.Close())
	}
	defer func() {
		err = errors.Join(err, device.Close())
	}()

	logger.Info("instrument opened",
		slog.String("model", device.Capabilities().Model),
		slog.String("identification", device.Identification()),
		slog.String("resource", config.Instrument.GPIB.String()))

	if err = configure(device, &config.Measurement, logger); err != nil {
		return err
	}

	format, _ := config.Measurement.format()
	orchestrator := NewOrchestrator(device, store, logger,
		WithFormat(format),
		WithSweeps(config.Measurement.Sweeps),
		WithInterval(config.Measurement.Interval.Duration()))

	return orchestrator.Run(ctx, config.Instrument.GPIB.String(), config)
}

func openDevice(session vna.Session, config *InstrumentConfig, logger *slog.Logger) (vna.Device, error) {
	switch config.Model {
	case Model360:
		return wiltron360.Open(session, wiltron360.WithLogger(logger))

	case Model360B:
		options := []func(*wiltron360b.Device){wiltron360b.WithLogger(logger)}
		if config.Title != "" {
			options = append(options, wiltron360b.WithTitle(config.Title))
		}
		return wiltron360b.Open(session, options...)

	default:
		return nil, fmt.Errorf("unknown model '%s'", config.Model)
	}
}

func configure(device vna.Device, config *MeasurementConfig, logger *slog.Logger) error {
	if config.Preset {
		if !device.Capabilities().Preset {
			logger.Warn("preset is not supported by this model, skipping")
		} else if err := device.Preset(); err != nil {
			return fmt.Errorf("preset: %w", err)
		}
	}

	if err := config.Sweep.Apply(device); err != nil {
		return fmt.Errorf("applying sweep configuration: %w", err)
	}
	return nil
}

func createStorage(config *StorageConfig) (storage.Store, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = storageDir
	}
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dir, err)
		}
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dir)
	}

	dbPath := filepath.Join(dir, fmt.Sprintf("vna_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}
