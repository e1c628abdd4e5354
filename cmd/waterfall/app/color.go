package app

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	ClassicTheme   ColorTheme = "classic"   // blue to red
	GrayscaleTheme ColorTheme = "grayscale" // black to white
	JungleTheme    ColorTheme = "jungle"    // dark green to yellow
	ThermalTheme   ColorTheme = "thermal"   // black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // deep blue to cyan to white
	EnhancedTheme  ColorTheme = "enhanced"  // black to blue to cyan to yellow to red

	DefaultColorMapSize = 256
)

// ColorTheme names a colour scale for magnitudes
type ColorTheme string

var colorThemes = map[ColorTheme]func(float64) color.Color{
	ClassicTheme: func(v float64) color.Color {
		return colorful.Hsv(240-v*240, 0.9+v*0.1, math.Pow(v, 0.7))
	},
	GrayscaleTheme: func(v float64) color.Color {
		g := math.Pow(v, 0.7)
		return colorful.Color{R: g, G: g, B: g}
	},
	JungleTheme: func(v float64) color.Color {
		return colorful.Hsv(120-v*60, 1, 0.3+math.Pow(v, 0.6)*0.7)
	},
	ThermalTheme: func(v float64) color.Color {
		switch {
		case v < 1.0/3:
			return colorful.Color{R: v * 3}
		case v < 2.0/3:
			return colorful.Color{R: 1, G: (v - 1.0/3) * 3}
		default:
			return colorful.Color{R: 1, G: 1, B: (v - 2.0/3) * 3}
		}
	},
	MarineTheme: func(v float64) color.Color {
		return colorful.Hsv(240-v*60, 1-v*0.8, 0.3+math.Pow(v, 0.6)*0.7)
	},
	EnhancedTheme: enhanced,
}

// ParseColorTheme returns the theme named s, the empty name selects EnhancedTheme
func ParseColorTheme(s string) (ColorTheme, error) {
	if s == "" {
		return EnhancedTheme, nil
	}
	if _, ok := colorThemes[ColorTheme(s)]; !ok {
		return "", fmt.Errorf("unknown color theme: %s", s)
	}
	return ColorTheme(s), nil
}

// enhanced spreads the lower half of the scale over more hues
func enhanced(v float64) color.Color {
	e := math.Pow(v, 0.7)

	switch {
	case v < 0.25:
		return colorful.Hsv(240, 1, math.Min(1, e*4))
	case v < 0.5:
		return colorful.Hsv(240-(v-0.25)*240, 1, math.Min(1, e*1.5))
	case v < 0.75:
		return colorful.Hsv(180-(v-0.5)*4*120, 1, math.Min(1, e*1.5))
	default:
		return colorful.Hsv(60-(v-0.75)*4*60, 1, 1)
	}
}

var noDataColor = color.Black

// ColorMapper maps magnitudes in dB onto a pre-computed colour scale
type ColorMapper struct {
	colorMap      []color.Color
	size          int
	bounds        LevelBounds
	levelPerIndex float64
}

func NewColorMapper(theme ColorTheme, bounds LevelBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

func NewColorMapperWithSize(theme ColorTheme, bounds LevelBounds, size int) *ColorMapper {
	if size <= 1 {
		size = DefaultColorMapSize
	}

	fn, ok := colorThemes[theme]
	if !ok {
		fn = enhanced
	}

	cm := &ColorMapper{
		colorMap: make([]color.Color, size),
		size:     size,
		bounds:   bounds,
	}
	cm.levelPerIndex = (bounds.Max - bounds.Min) / float64(size-1)

	for i := range cm.colorMap {
		c := fn(float64(i) / float64(size-1))
		if cf, ok := c.(colorful.Color); ok {
			c = cf.Clamped()
		}
		cm.colorMap[i] = c
	}
	return cm
}

// Color returns the colour of level. Levels outside the bounds take the
// colour of the nearest bound, NaN has no colour.
func (cm *ColorMapper) Color(level float64) color.Color {
	if math.IsNaN(level) {
		return noDataColor
	}
	if cm.levelPerIndex <= 0 {
		return cm.colorMap[0]
	}

	level = math.Max(cm.bounds.Min, math.Min(level, cm.bounds.Max))
	index := int((level - cm.bounds.Min) / cm.levelPerIndex)

	return cm.colorMap[min(max(index, 0), cm.size-1)]
}
