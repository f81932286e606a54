package aggregate

import (
	"errors"
	"time"

	"github.com/blackmichael/bluesense/internal/domain"
)

// DefaultTopPosts is the number of posts listed per extreme in a Report.
const DefaultTopPosts = 5

// Insufficient stands in for a derivation that had too little data.
type Insufficient struct {
	InsufficientData bool   `json:"insufficient_data"`
	Message          string `json:"message"`
}

// Report is an analysis with every derivation attached. Each derivation
// field holds either its result or an Insufficient value.
type Report struct {
	ID         string           `json:"id"`
	Query      string           `json:"query"`
	Outcome    domain.Outcome   `json:"outcome"`
	Message    string           `json:"message"`
	Counters   domain.Counters  `json:"counters"`
	StartedAt  time.Time        `json:"started_at"`
	DurationMS int64            `json:"duration_ms"`
	Posts      domain.ResultSet `json:"posts"`

	Summary   any `json:"summary"`
	TopPosts  any `json:"top_posts"`
	Trend     any `json:"trend"`
	Terms     any `json:"terms"`
	Scatter   any `json:"scatter"`
	Histogram any `json:"histogram"`
}

const (
	msgNoSummary   = "No posts to summarize."
	msgNoTopPosts  = "No posts to rank."
	msgNoTrend     = "Insufficient time data to create a temporal analysis."
	msgNoTerms     = "Not enough text data to extract common terms."
	msgNoScatter   = "No scored posts to plot."
	msgNoHistogram = "No scores to plot a distribution."
)

// NewReport runs every derivation over a.Posts.
func NewReport(a *domain.Analysis) (*Report, error) {
	r := &Report{
		ID:         a.ID,
		Query:      a.Query,
		Outcome:    a.Outcome(),
		Message:    a.Message(),
		Counters:   a.Counters,
		StartedAt:  a.StartedAt,
		DurationMS: a.Duration.Milliseconds(),
		Posts:      a.Posts,
	}
	if r.Posts == nil {
		r.Posts = domain.ResultSet{}
	}

	summary, err := Summarize(a.Posts)
	if r.Summary, err = section(summary, err, msgNoSummary); err != nil {
		return nil, err
	}
	top, err := TopPosts(a.Posts, DefaultTopPosts)
	if r.TopPosts, err = section(top, err, msgNoTopPosts); err != nil {
		return nil, err
	}
	trend, err := Trend(a.Posts)
	if r.Trend, err = section(trend, err, msgNoTrend); err != nil {
		return nil, err
	}
	terms, err := TermsByCategory(a.Posts)
	if r.Terms, err = section(terms, err, msgNoTerms); err != nil {
		return nil, err
	}
	scatter, err := ScoreMagnitudeByCategory(a.Posts)
	if r.Scatter, err = section(scatter, err, msgNoScatter); err != nil {
		return nil, err
	}
	hist, err := ScoreHistogram(a.Posts)
	if r.Histogram, err = section(hist, err, msgNoHistogram); err != nil {
		return nil, err
	}
	return r, nil
}

// section turns a derivation's result into a report field, substituting an
// Insufficient value for ErrInsufficientData.
func section(v any, err error, msg string) (any, error) {
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrInsufficientData):
		return Insufficient{InsufficientData: true, Message: msg}, nil
	default:
		return nil, err
	}
}
