package aggregate

import (
	"sort"
	"strings"

	"github.com/blackmichael/bluesense/internal/domain"
)

// CategoryShare is the count and fraction of posts in one category.
type CategoryShare struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
	Share    float64         `json:"share"`
}

// Summary is the headline breakdown of a result set.
type Summary struct {
	Total           int             `json:"total"`
	Categories      []CategoryShare `json:"categories"`
	MeanScore       float64         `json:"mean_score"`
	MeanMagnitude   float64         `json:"mean_magnitude"`
	ScoringFailures int             `json:"scoring_failures"`
}

// Summarize counts posts per category and averages score and magnitude.
// Categories with no posts are omitted. It returns ErrInsufficientData for an
// empty result set.
func Summarize(rs domain.ResultSet) (*Summary, error) {
	if len(rs) == 0 {
		return nil, ErrInsufficientData
	}

	var counts [len(domain.Categories)]int
	s := &Summary{Total: len(rs)}
	for _, p := range rs {
		counts[p.Category]++
		s.MeanScore += p.Score
		s.MeanMagnitude += p.Magnitude
		if p.ScoringFailed {
			s.ScoringFailures++
		}
	}
	s.MeanScore /= float64(len(rs))
	s.MeanMagnitude /= float64(len(rs))

	for _, cat := range domain.Categories {
		if counts[cat] == 0 {
			continue
		}
		s.Categories = append(s.Categories, CategoryShare{
			Category: cat,
			Count:    counts[cat],
			Share:    float64(counts[cat]) / float64(len(rs)),
		})
	}
	return s, nil
}

// Extremes holds the highest- and lowest-scoring posts of a result set.
type Extremes struct {
	Positive []domain.AnalyzedPost `json:"positive"`
	Negative []domain.AnalyzedPost `json:"negative"`
}

// TopPosts returns the n highest-scoring and n lowest-scoring posts. Equal scores
// keep result order. It returns ErrInsufficientData for an empty result set.
func TopPosts(rs domain.ResultSet, n int) (*Extremes, error) {
	if len(rs) == 0 || n <= 0 {
		return nil, ErrInsufficientData
	}
	if n > len(rs) {
		n = len(rs)
	}

	desc := append(domain.ResultSet(nil), rs...)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].Score > desc[j].Score })
	asc := append(domain.ResultSet(nil), rs...)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Score < asc[j].Score })

	return &Extremes{Positive: desc[:n], Negative: asc[:n]}, nil
}

// Corpus joins the cleaned text of every post, or of one category when
// category is non-nil, separated by single spaces. It returns
// ErrInsufficientData when no text remains.
func Corpus(rs domain.ResultSet, category *domain.Category) (string, error) {
	parts := make([]string, 0, len(rs))
	for _, p := range rs {
		if category != nil && p.Category != *category {
			continue
		}
		if p.CleanedText == "" {
			continue
		}
		parts = append(parts, p.CleanedText)
	}
	if len(parts) == 0 {
		return "", ErrInsufficientData
	}
	return strings.Join(parts, " "), nil
}
