package aggregate

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/blackmichael/bluesense/internal/domain"
)

// TrendPoint is one post on the sentiment-over-time series.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`

	// Fitted is the trend line's value at this point.
	Fitted float64 `json:"fitted"`
}

// TrendResult is the time-ordered score series and its fitted linear trend.
// The line is fitted against sequence index, not absolute time:
// fitted(i) = Intercept + Slope*i.
type TrendResult struct {
	Points    []TrendPoint `json:"points"`
	Slope     float64      `json:"slope"`
	Intercept float64      `json:"intercept"`
}

// Trend orders timestamped posts by time and fits a least-squares line of
// score against position. Posts without a timestamp are left out. It returns
// ErrInsufficientData when no post has a timestamp.
func Trend(rs domain.ResultSet) (*TrendResult, error) {
	points := make([]TrendPoint, 0, len(rs))
	for _, p := range rs {
		if p.CreatedAt == nil {
			continue
		}
		points = append(points, TrendPoint{Timestamp: *p.CreatedAt, Score: p.Score})
	}
	if len(points) == 0 {
		return nil, ErrInsufficientData
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	result := &TrendResult{Points: points}
	if len(points) == 1 {
		result.Intercept = points[0].Score
	} else {
		xs := make([]float64, len(points))
		ys := make([]float64, len(points))
		for i, p := range points {
			xs[i] = float64(i)
			ys[i] = p.Score
		}
		result.Intercept, result.Slope = stat.LinearRegression(xs, ys, nil, false)
	}

	for i := range result.Points {
		result.Points[i].Fitted = result.Intercept + result.Slope*float64(i)
	}
	return result, nil
}
