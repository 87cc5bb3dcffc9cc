package events

import (
	"math"
	"slices"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go-hep.org/x/hep/hbook"
)

const (
	// DefaultBins is the number of equal-width histogram bins.
	DefaultBins = 30

	// Values are shifted to start at 1 and scaled so their range spans
	// quantileResolution units before they are recorded in the HDR histogram.
	quantileResolution = 1_000_000
	quantileSigFigs    = 3
)

// Welford is an online mean and variance estimator.
type Welford struct {
	mean  float64
	m2    float64
	count uint64
}

// Update adds the value to the current estimate.
func (w *Welford) Update(val float64) {
	w.count++
	delta := val - w.mean
	w.mean += delta / float64(w.count)
	delta2 := val - w.mean
	w.m2 += delta * delta2
}

// Get returns the current mean and sample variance estimate. The variance is
// NaN with fewer than two samples.
func (w *Welford) Get() (mean, variance float64, count uint64) {
	if w.count < 2 {
		return w.mean, math.NaN(), w.count
	}
	return w.mean, w.m2 / float64(w.count-1), w.count
}

// Summary describes the distribution of one histogram call.
type Summary struct {
	Count   uint64  `json:"count"`
	Dropped int     `json:"dropped,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
	P50     float64 `json:"p50"`
	P90     float64 `json:"p90"`
	P99     float64 `json:"p99"`
}

// Bin is one equal-width histogram bin covering [Low, High).
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count float64 `json:"count"`
}

// Histogram is the event payload of a histogram call.
type Histogram struct {
	Summary
	Bins []Bin `json:"bins"`
}

// finite returns the finite values and how many were dropped.
func finite(values []float64) ([]float64, int) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out, len(values) - len(out)
}

// Summarize computes the summary of values. NaN and infinite values are
// counted as dropped.
func Summarize(values []float64) Summary {
	vals, dropped := finite(values)
	s := Summary{Dropped: dropped}
	if len(vals) == 0 {
		return s
	}

	s.Min, s.Max = vals[0], vals[0]
	for _, v := range vals {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Count = uint64(len(vals))
	s.Mean, s.StdDev = moments(vals, math.Max(math.Abs(s.Min), math.Abs(s.Max)))

	if s.Max == s.Min {
		s.P50, s.P90, s.P99 = s.Min, s.Min, s.Min
		return s
	}

	scale := quantileResolution / (s.Max - s.Min)
	if scale == 0 || math.IsInf(scale, 0) {
		// The range overflows or underflows float64.
		sorted := slices.Sorted(slices.Values(vals))
		s.P50, s.P90, s.P99 = rank(sorted, 50), rank(sorted, 90), rank(sorted, 99)
		return s
	}
	hist := hdrhistogram.New(1, quantileResolution+1, quantileSigFigs)
	for _, v := range vals {
		// RecordValue only fails outside the trackable range.
		_ = hist.RecordValue(int64(math.Round((v-s.Min)*scale)) + 1)
	}
	unshift := func(q float64) float64 {
		v := float64(hist.ValueAtQuantile(q)-1)/scale + s.Min
		return math.Min(math.Max(v, s.Min), s.Max)
	}
	s.P50 = unshift(50)
	s.P90 = unshift(90)
	s.P99 = unshift(99)
	return s
}

// moments returns the mean and sample standard deviation of vals. Values are
// divided by norm, the largest magnitude, when the plain estimate overflows.
// A standard deviation beyond the float64 range is clamped to MaxFloat64.
func moments(vals []float64, norm float64) (mean, stddev float64) {
	mean, variance := welford(vals, 1)
	if isFinite(mean) && !math.IsInf(variance, 0) {
		stddev = math.Sqrt(variance)
	} else {
		mean, variance = welford(vals, norm)
		mean *= norm
		stddev = math.Sqrt(variance) * norm
	}
	switch {
	case math.IsNaN(stddev):
		stddev = 0
	case math.IsInf(stddev, 0):
		stddev = math.MaxFloat64
	}
	return mean, stddev
}

func welford(vals []float64, norm float64) (mean, variance float64) {
	var w Welford
	for _, v := range vals {
		w.Update(v / norm)
	}
	mean, variance, _ = w.Get()
	return mean, variance
}

// rank returns the nearest-rank q-th percentile of sorted values.
func rank(sorted []float64, q float64) float64 {
	i := int(math.Ceil(q/100*float64(len(sorted)))) - 1
	return sorted[max(i, 0)]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NewHistogram summarizes values and sorts them into n equal-width bins
// spanning [min, max]. A constant series gets a single bin centered on the
// value, of width one unless the value is too large for that.
func NewHistogram(values []float64, n int) Histogram {
	if n <= 0 {
		n = DefaultBins
	}
	h := Histogram{Summary: Summarize(values)}
	if h.Count == 0 {
		return h
	}

	lo, hi := h.Min, h.Max
	div := 1.0
	if math.Max(math.Abs(lo), math.Abs(hi)) > math.MaxFloat64/4 {
		// Bin scaled-down values so the range and bin width stay finite.
		div = 4
		lo, hi = lo/div, hi/div
	}
	if lo == hi {
		half := math.Max(0.5, math.Abs(lo)/(1<<20))
		lo, hi, n = lo-half, hi+half, 1
	} else {
		// The upper edge is exclusive.
		hi = math.Nextafter(hi, math.Inf(1))
	}

	h1 := hbook.NewH1D(n, lo, hi)
	vals, _ := finite(values)
	for _, v := range vals {
		h1.Fill(v/div, 1)
	}

	h.Bins = make([]Bin, len(h1.Binning.Bins))
	for i := range h1.Binning.Bins {
		b := &h1.Binning.Bins[i]
		h.Bins[i] = Bin{Low: b.XMin() * div, High: math.Min(b.XMax()*div, math.MaxFloat64), Count: b.SumW()}
	}
	return h
}
