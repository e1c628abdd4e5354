package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/roman-kulish/wiltron-vna/internal/vna"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 120.0
	fontSize       = 10.0
	tickMarkHeight = 5
	pixelsPerLabel = 150.0
	rowsPerLabel   = 60 // pixels between time labels

	defaultRowHeight = 4

	defaultTopBorder    = 40
	defaultLeftBorder   = 80
	defaultBottomBorder = 40
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04:05"
	defaultDatetimeFormat = time.DateTime
)

// BorderConfig defines the sizes of white space around the waterfall
type BorderConfig struct {
	Top    int // frequency scale
	Left   int // time scale
	Bottom int // information bar
	Right  int
}

// RenderConfig holds the rendering options
type RenderConfig struct {
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location

	FontSize     float64
	ColorTheme   ColorTheme
	ColorMapSize int
	RowHeight    int // pixels per sweep

	// Bounds overrides the tracked level bounds when set
	Bounds        *LevelBounds
	NoAnnotations bool

	BorderConfig BorderConfig
}

// Renderer draws a Waterfall with its scales
type Renderer struct {
	config RenderConfig
}

func NewRenderer(config RenderConfig) *Renderer {
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.RowHeight <= 0 {
		config.RowHeight = defaultRowHeight
	}

	b := &config.BorderConfig
	if config.NoAnnotations {
		*b = BorderConfig{}
	} else {
		if b.Top == 0 {
			b.Top = defaultTopBorder
		}
		if b.Left == 0 {
			b.Left = defaultLeftBorder
		}
		if b.Bottom == 0 {
			b.Bottom = defaultBottomBorder
		}
		if b.Right == 0 {
			b.Right = defaultRightBorder
		}
	}

	return &Renderer{config: config}
}

// Render creates the waterfall image
func (r *Renderer) Render(w *Waterfall) (*image.RGBA, error) {
	if w.Empty() {
		return nil, fmt.Errorf("no traces to render")
	}

	b := r.config.BorderConfig
	height := w.Height * r.config.RowHeight
	img := image.NewRGBA(image.Rect(0, 0, w.Width+b.Left+b.Right, height+b.Top+b.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(b.Left, b.Top, b.Left+w.Width, b.Top+height)

	bounds := w.BoundsTracker.Current()
	if r.config.Bounds != nil {
		bounds = *r.config.Bounds
	}
	cm := NewColorMapperWithSize(r.config.ColorTheme, bounds, r.config.ColorMapSize)

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(r.config)
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, w, bounds); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderRows(img, area, w, cm)
	return img, nil
}

func (r *Renderer) renderRows(img *image.RGBA, area image.Rectangle, w *Waterfall, cm *ColorMapper) {
	for y, row := range w.Rows {
		top := area.Min.Y + y*r.config.RowHeight
		for x, level := range row {
			c := cm.Color(level)
			for dy := range r.config.RowHeight {
				img.Set(area.Min.X+x, top+dy, c)
			}
		}
	}
}

type annotator struct {
	context  *freetype.Context
	config   RenderConfig
	fontFace font.Face
}

func newAnnotator(config RenderConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	return a.fontFace.Close()
}

func (a *annotator) annotate(img *image.RGBA, w *Waterfall, bounds LevelBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawFrequencyScale(img, w); err != nil {
		return fmt.Errorf("drawing frequency scale: %w", err)
	}
	if err := a.drawTimeScale(img, w); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := a.drawInfoBar(img, w, bounds); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}
	return nil
}

func (a *annotator) fontHeight() int {
	m := a.fontFace.Metrics()
	return (m.Ascent + m.Descent).Round()
}

func (a *annotator) drawFrequencyScale(img *image.RGBA, w *Waterfall) error {
	span := w.FrequencyMax - w.FrequencyMin
	if span <= 0 {
		return nil
	}

	step := niceFrequencyStep(span, w.Width)
	textY := a.config.BorderConfig.Top - a.fontHeight()/2

	for freq := math.Ceil(w.FrequencyMin/step) * step; freq <= w.FrequencyMax; freq += step {
		x := a.config.BorderConfig.Left + int((freq-w.FrequencyMin)/span*float64(w.Width-1))

		for y := a.config.BorderConfig.Top - tickMarkHeight; y < a.config.BorderConfig.Top; y++ {
			img.Set(x, y, color.Black)
		}

		label := vna.FormatHz(freq)
		width := font.MeasureString(a.fontFace, label)
		if _, err := a.context.DrawString(label, freetype.Pt(x-width.Round()/2, textY)); err != nil {
			return fmt.Errorf("drawing frequency label: %w", err)
		}
	}
	return nil
}

// drawTimeScale labels rows with the time of their sweep. Sweeps are not
// evenly spaced in time, so labels follow rows rather than a time step.
func (a *annotator) drawTimeScale(img *image.RGBA, w *Waterfall) error {
	m := a.fontFace.Metrics()
	every := max(1, rowsPerLabel/a.config.RowHeight)

	for row := 0; row < w.Height; row += every {
		y := a.config.BorderConfig.Top + row*a.config.RowHeight

		for x := a.config.BorderConfig.Left - tickMarkHeight; x < a.config.BorderConfig.Left; x++ {
			img.Set(x, y, color.Black)
		}

		label := w.Timestamps[row].In(a.config.Location).Format(a.config.TimeFormat)
		textY := y + a.fontHeight()/2 - m.Descent.Round()
		if _, err := a.context.DrawString(label, freetype.Pt(5, textY)); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, w *Waterfall, bounds LevelBounds) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "|%s|: %.1f to %.1f dB", w.Parameter, bounds.Min, bounds.Max)
	fmt.Fprintf(&sb, "; Freq: %s - %s", vna.FormatHz(w.FrequencyMin), vna.FormatHz(w.FrequencyMax))
	fmt.Fprintf(&sb, "; Time: %s - %s",
		w.TimestampStart.In(a.config.Location).Format(a.config.DatetimeFormat),
		w.TimestampEnd.In(a.config.Location).Format(a.config.DatetimeFormat))
	fmt.Fprintf(&sb, "; %d sweeps", w.Height)

	m := a.fontFace.Metrics()
	textY := img.Bounds().Max.Y - (a.config.BorderConfig.Bottom-a.fontHeight())/2 - m.Descent.Round()

	if _, err := a.context.DrawString(sb.String(), freetype.Pt(a.config.BorderConfig.Left, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// niceFrequencyStep returns a 1-2-5 step giving roughly one label per
// pixelsPerLabel pixels
func niceFrequencyStep(span float64, width int) float64 {
	labels := math.Max(1, float64(width)/pixelsPerLabel)
	target := span / labels

	magnitude := math.Pow(10, math.Floor(math.Log10(target)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= target {
			return step
		}
	}
	return 10 * magnitude
}
