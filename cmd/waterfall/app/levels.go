package app

import "math"

const (
	defaultMinLevel = -60.0 // dB
	defaultMaxLevel = 10.0  // dB

	// minimumSampleCount is the least number of samples percentiles are
	// computed from; 20 samples give one sample per 5%
	minimumSampleCount = 20

	// minimumRange is the narrowest level range, in dB, the bounds span
	minimumRange = 20
)

// LevelBounds is the range of magnitudes mapped onto the colour scale
type LevelBounds struct {
	Min  float64 // 5th percentile level in dB
	Max  float64 // 95th percentile level in dB
	Mean float64 // mean level in dB
}

func defaultLevelBounds() LevelBounds {
	return LevelBounds{
		Min:  defaultMinLevel,
		Max:  defaultMaxLevel,
		Mean: (defaultMinLevel + defaultMaxLevel) / 2,
	}
}

// LevelHistogram counts magnitudes in 1 dB bins
type LevelHistogram struct {
	bins       map[int]uint32
	totalCount uint64
	minBin     int
	maxBin     int
}

func NewLevelHistogram() *LevelHistogram {
	return &LevelHistogram{
		bins:   make(map[int]uint32),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

func getBinIndex(level float64) int {
	return int(math.Floor(level))
}

// scaleDown halves all counts, dropping bins that reach zero
func (h *LevelHistogram) scaleDown() {
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32

	for bin := range h.bins {
		h.bins[bin] /= 2
		if h.bins[bin] == 0 {
			delete(h.bins, bin)
			continue
		}

		h.minBin = min(h.minBin, bin)
		h.maxBin = max(h.maxBin, bin)
	}
	h.totalCount /= 2
}

// Update adds a level to the histogram. NaN and infinite levels, e.g. the
// dB value of a zero sample, are ignored.
func (h *LevelHistogram) Update(level float64) {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return
	}

	bin := getBinIndex(level)
	if h.bins[bin] == math.MaxUint32 || h.totalCount == math.MaxUint64 {
		h.scaleDown()
	}

	h.bins[bin]++
	h.totalCount++

	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

// PercentileBounds returns the 5th to 95th percentile range with a 10% margin
func (h *LevelHistogram) PercentileBounds() LevelBounds {
	if h.totalCount < minimumSampleCount {
		return defaultLevelBounds()
	}

	target := h.totalCount * 5 / 100

	var count uint64
	var low, high int

	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += uint64(h.bins[bin])
		if count >= target {
			low = bin
			break
		}
	}

	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += uint64(h.bins[bin])
		if count >= target {
			high = bin
			break
		}
	}

	var sum float64
	for bin, n := range h.bins {
		sum += float64(bin) * float64(n)
	}
	mean := sum / float64(h.totalCount)

	if high-low < minimumRange {
		center := (high + low) / 2
		low = center - minimumRange/2
		high = center + minimumRange/2
	}

	margin := (high - low) / 10
	return LevelBounds{
		Min:  float64(low - margin),
		Max:  float64(high + margin),
		Mean: mean,
	}
}

// SmoothBounds follows the percentile bounds with exponential smoothing
type SmoothBounds struct {
	hist    *LevelHistogram
	alpha   float64 // smoothing factor [0-1]
	current LevelBounds
}

func NewSmoothBounds(alpha float64) *SmoothBounds {
	return &SmoothBounds{
		hist:    NewLevelHistogram(),
		alpha:   alpha,
		current: defaultLevelBounds(),
	}
}

// Update adds the levels of one trace and returns the smoothed bounds
func (s *SmoothBounds) Update(levels []float64) LevelBounds {
	for _, l := range levels {
		s.hist.Update(l)
	}

	b := s.hist.PercentileBounds()
	s.current.Min = s.current.Min*(1-s.alpha) + b.Min*s.alpha
	s.current.Max = s.current.Max*(1-s.alpha) + b.Max*s.alpha
	s.current.Mean = b.Mean

	return s.current
}

func (s *SmoothBounds) Current() LevelBounds {
	return s.current
}
