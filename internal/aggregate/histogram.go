package aggregate

import (
	"gonum.org/v1/gonum/floats"

	"github.com/blackmichael/bluesense/internal/domain"
)

// HistogramBins is the number of equal-width score bins.
const HistogramBins = 20

// Bin is a half-open score interval [Lower, Upper) and the number of posts in
// it. The last bin also includes its upper edge.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is the distribution of scores across HistogramBins bins.
type Histogram struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Bins []Bin   `json:"bins"`
}

// ScoreHistogram bins every score in rs into HistogramBins equal-width bins
// spanning the observed range. When all scores are equal the range is widened
// by 0.5 on each side. It returns ErrInsufficientData for an empty result set.
func ScoreHistogram(rs domain.ResultSet) (*Histogram, error) {
	if len(rs) == 0 {
		return nil, ErrInsufficientData
	}

	scores := make([]float64, len(rs))
	for i, p := range rs {
		scores[i] = p.Score
	}
	lo, hi := floats.Min(scores), floats.Max(scores)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	edges := floats.Span(make([]float64, HistogramBins+1), lo, hi)
	h := &Histogram{Min: lo, Max: hi, Bins: make([]Bin, HistogramBins)}
	for i := range h.Bins {
		h.Bins[i].Lower = edges[i]
		h.Bins[i].Upper = edges[i+1]
	}
	for _, s := range scores {
		h.Bins[binIndex(edges, s)].Count++
	}
	return h, nil
}

// binIndex locates s among edges, correcting for rounding in the initial
// estimate. Values equal to the last edge land in the last bin.
func binIndex(edges []float64, s float64) int {
	n := len(edges) - 1
	lo, hi := edges[0], edges[n]

	idx := int((s - lo) / (hi - lo) * float64(n))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	for idx > 0 && s < edges[idx] {
		idx--
	}
	for idx < n-1 && s >= edges[idx+1] {
		idx++
	}
	return idx
}
