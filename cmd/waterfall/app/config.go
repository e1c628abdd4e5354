package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath        string
	SessionID     int64
	Parameter     string
	OutputFile    string
	Format        ImageFormat
	Theme         ColorTheme
	TimeZone      *time.Location
	RowHeight     int
	MinLevel      *float64
	MaxLevel      *float64
	MinFrequency  *float64
	MaxFrequency  *float64
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Parameter: "S2,1",
		Format:    ImagePNG,
		Theme:     EnhancedTheme,
		TimeZone:  time.Local,
		RowHeight: defaultRowHeight,
	}
}

// NewConfigFromCLI parses the command line flags in args
func NewConfigFromCLI(args []string) (*Config, error) {
	c := NewConfig()
	fs := flag.NewFlagSet("waterfall", flag.ContinueOnError)

	var imageFormat, theme, tz string
	var minLevel, maxLevel, minFreq, maxFreq float64
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.SessionID, "s", 1, "Session ID")
	fs.StringVar(&c.Parameter, "p", c.Parameter, "Parameter to render, e.g. S2,1 or b1_p1")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", ImagePNG, "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", string(EnhancedTheme), "Color theme. [classic, grayscale, jungle, thermal, marine, enhanced]")
	fs.StringVar(&tz, "tz", "", "Time zone of the time scale (default: local)")
	fs.IntVar(&c.RowHeight, "row-height", c.RowHeight, "Pixels per sweep")
	fs.Float64Var(&minLevel, "min-level", 0, "Manual lower bound of the colour scale in dB")
	fs.Float64Var(&maxLevel, "max-level", 0, "Manual upper bound of the colour scale in dB")
	fs.Float64Var(&minFreq, "min-freq", 0, "Lowest frequency to render in Hz")
	fs.Float64Var(&maxFreq, "max-freq", 0, "Highest frequency to render in Hz")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as time and frequency scales")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-level":
			c.MinLevel = &minLevel
		case "max-level":
			c.MaxLevel = &maxLevel
		case "min-freq":
			c.MinFrequency = &minFreq
		case "max-freq":
			c.MaxFrequency = &maxFreq
		}
	})

	imageFormat = strings.ToLower(imageFormat)

	var err error
	switch {
	case c.DBPath == "":
		err = errors.New("db path is required")
	case c.SessionID <= 0:
		err = errors.New("session id is required")
	case c.Parameter == "":
		err = errors.New("parameter is required")
	case c.OutputFile == "":
		err = errors.New("output file is required")
	case c.RowHeight <= 0:
		err = fmt.Errorf("row height must be positive: %d", c.RowHeight)
	case c.MinLevel != nil && c.MaxLevel != nil && *c.MinLevel >= *c.MaxLevel:
		err = fmt.Errorf("min level %.1f must be below max level %.1f", *c.MinLevel, *c.MaxLevel)
	case c.MinFrequency != nil && c.MaxFrequency != nil && *c.MinFrequency > *c.MaxFrequency:
		err = fmt.Errorf("min frequency %g is above max frequency %g", *c.MinFrequency, *c.MaxFrequency)
	}
	if err == nil {
		if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
			err = fmt.Errorf("invalid image format: %s", imageFormat)
		}
	}
	if err == nil {
		c.Theme, err = ParseColorTheme(theme)
	}
	if err == nil && tz != "" {
		c.TimeZone, err = time.LoadLocation(tz)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}

// levelBounds returns the manual colour scale bounds, completed from
// tracked ones when only one side is given
func (c *Config) levelBounds(tracked LevelBounds) *LevelBounds {
	if c.MinLevel == nil && c.MaxLevel == nil {
		return nil
	}

	b := tracked
	if c.MinLevel != nil {
		b.Min = *c.MinLevel
	}
	if c.MaxLevel != nil {
		b.Max = *c.MaxLevel
	}
	return &b
}
