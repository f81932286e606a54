package aggregate

import "github.com/blackmichael/bluesense/internal/domain"

// ScatterPoint is one post on the score/magnitude plane.
type ScatterPoint struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// CategoryPoints groups the score/magnitude points of one category.
type CategoryPoints struct {
	Category domain.Category `json:"category"`
	Points   []ScatterPoint  `json:"points"`
}

// ScoreMagnitudeByCategory partitions rs by category, in Positive, Neutral,
// Negative order. Only non-empty groups are returned. It returns
// ErrInsufficientData for an empty result set.
func ScoreMagnitudeByCategory(rs domain.ResultSet) ([]CategoryPoints, error) {
	if len(rs) == 0 {
		return nil, ErrInsufficientData
	}

	var groups []CategoryPoints
	for _, cat := range domain.Categories {
		var points []ScatterPoint
		for _, p := range rs {
			if p.Category == cat {
				points = append(points, ScatterPoint{Score: p.Score, Magnitude: p.Magnitude})
			}
		}
		if len(points) > 0 {
			groups = append(groups, CategoryPoints{Category: cat, Points: points})
		}
	}
	return groups, nil
}
