package app

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/roman-kulish/wiltron-vna/internal/storage"
	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	w, err := readWaterfall(ctx, store, config, logger)
	if err != nil {
		return err
	}
	return render(w, config, logger)
}

func readWaterfall(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) (*Waterfall, error) {
	var opts []storage.ReaderOption
	if config.MinFrequency != nil || config.MaxFrequency != nil {
		lo, hi := math.Inf(-1), math.Inf(1)
		if config.MinFrequency != nil {
			lo = *config.MinFrequency
		}
		if config.MaxFrequency != nil {
			hi = *config.MaxFrequency
		}
		opts = append(opts, storage.WithFreqRange(lo, hi))
	}

	iter, err := store.ReadTraces(ctx, config.SessionID, config.Parameter, opts...)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	session := iter.Session()
	logger.Info("reading traces",
		slog.Int64("sessionID", session.ID),
		slog.String("model", session.Model),
		slog.String("parameter", config.Parameter),
		slog.String("started", session.StartTime.In(config.TimeZone).Format(time.DateTime)))

	w := NewWaterfall(config.Parameter, NewSmoothBounds(0.3))
	for iter.Next(ctx) {
		w.Update(iter.Current())
	}
	if err = iter.Error(); err != nil {
		return nil, err
	}
	if w.Empty() {
		return nil, fmt.Errorf("session %d has no %s traces: %w", config.SessionID, config.Parameter, storage.ErrNoData)
	}

	bounds := w.BoundsTracker.Current()
	logger.Info("finished reading traces",
		slog.Group("stats",
			slog.Int("sweeps", w.Height),
			slog.Int("points", w.Width),
			slog.String("minTimestamp", w.TimestampStart.In(config.TimeZone).Format(time.DateTime)),
			slog.String("maxTimestamp", w.TimestampEnd.In(config.TimeZone).Format(time.DateTime)),
			slog.String("minFreq", vna.FormatHz(w.FrequencyMin)),
			slog.String("maxFreq", vna.FormatHz(w.FrequencyMax)),
			slog.String("minLevel", fmt.Sprintf("%0.2fdB", bounds.Min)),
			slog.String("maxLevel", fmt.Sprintf("%0.2fdB", bounds.Max)),
		))

	return w, nil
}

func render(w *Waterfall, config *Config, logger *slog.Logger) (err error) {
	renderer := NewRenderer(RenderConfig{
		Location:      config.TimeZone,
		ColorTheme:    config.Theme,
		RowHeight:     config.RowHeight,
		Bounds:        config.levelBounds(w.BoundsTracker.Current()),
		NoAnnotations: config.NoAnnotations,
	})

	img, err := renderer.Render(w)
	if err != nil {
		return fmt.Errorf("rendering waterfall: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	if stat, sErr := out.Stat(); sErr == nil {
		logger.Info("waterfall written",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
			slog.String("size", humanize.Bytes(uint64(stat.Size()))))
	}
	return nil
}
