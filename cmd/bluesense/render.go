package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/blackmichael/bluesense/internal/aggregate"
	"github.com/blackmichael/bluesense/internal/domain"
)

const (
	postPreviewWidth = 72
	histogramBarMax  = 30
	trendFlatSlope   = 0.001
)

// renderAnalysis prints the outcome message followed by one table per
// derivation. Derivations without enough data print a note instead.
func renderAnalysis(w io.Writer, a *domain.Analysis) error {
	fmt.Fprintln(w, a.Message())
	if len(a.Posts) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	sections := []func(io.Writer, domain.ResultSet) error{
		renderSummary,
		renderTopPosts,
		renderTrend,
		renderTerms,
		renderHistogram,
	}
	for _, render := range sections {
		if err := render(w, a.Posts); err != nil {
			if errors.Is(err, aggregate.ErrInsufficientData) {
				continue
			}
			return err
		}
	}
	return nil
}

func renderSummary(w io.Writer, rs domain.ResultSet) error {
	s, err := aggregate.Summarize(rs)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(s.Categories)+1)
	for _, c := range s.Categories {
		rows = append(rows, []string{c.Category.String(), fmt.Sprint(c.Count), fmt.Sprintf("%.1f%%", c.Share*100)})
	}
	rows = append(rows, []string{"Total", fmt.Sprint(s.Total), "100.0%"})

	fmt.Fprint(w, renderTable("Sentiment", []string{"Category", "Posts", "Share"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight}))
	fmt.Fprintf(w, "Mean score %.3f, mean magnitude %.3f", s.MeanScore, s.MeanMagnitude)
	if s.ScoringFailures > 0 {
		fmt.Fprintf(w, ", %d posts could not be scored", s.ScoringFailures)
	}
	fmt.Fprint(w, "\n\n")
	return nil
}

func renderTopPosts(w io.Writer, rs domain.ResultSet) error {
	top, err := aggregate.TopPosts(rs, aggregate.DefaultTopPosts)
	if err != nil {
		return err
	}

	postRows := func(posts []domain.AnalyzedPost) [][]string {
		rows := make([][]string, 0, len(posts))
		for _, p := range posts {
			author := p.Author
			if author == "" {
				author = "-"
			}
			rows = append(rows, []string{fmt.Sprintf("%+.2f", p.Score), author, preview(p.Text)})
		}
		return rows
	}
	headers := []string{"Score", "Author", "Post"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft}

	fmt.Fprint(w, renderTable("Most positive", headers, postRows(top.Positive), aligns))
	fmt.Fprint(w, renderTable("Most negative", headers, postRows(top.Negative), aligns))
	fmt.Fprintln(w)
	return nil
}

func renderTrend(w io.Writer, rs domain.ResultSet) error {
	trend, err := aggregate.Trend(rs)
	if errors.Is(err, aggregate.ErrInsufficientData) {
		fmt.Fprint(w, "Insufficient time data to create a temporal analysis.\n\n")
		return nil
	}
	if err != nil {
		return err
	}

	direction := "flat"
	switch {
	case trend.Slope > trendFlatSlope:
		direction = "rising"
	case trend.Slope < -trendFlatSlope:
		direction = "falling"
	}

	first, last := trend.Points[0], trend.Points[len(trend.Points)-1]
	rows := [][]string{
		{"Posts with timestamps", fmt.Sprint(len(trend.Points))},
		{"From", first.Timestamp.Format("2006-01-02 15:04")},
		{"To", last.Timestamp.Format("2006-01-02 15:04")},
		{"Slope per post", fmt.Sprintf("%+.4f (%s)", trend.Slope, direction)},
		{"Fitted start", fmt.Sprintf("%+.3f", first.Fitted)},
		{"Fitted end", fmt.Sprintf("%+.3f", last.Fitted)},
	}
	fmt.Fprint(w, renderTable("Sentiment over time", []string{"Metric", "Value"}, rows,
		[]columnAlignment{alignLeft, alignRight}))
	fmt.Fprintln(w)
	return nil
}

func renderTerms(w io.Writer, rs domain.ResultSet) error {
	groups, err := aggregate.TermsByCategory(rs)
	if errors.Is(err, aggregate.ErrInsufficientData) {
		fmt.Fprint(w, "Not enough text data to extract common terms.\n\n")
		return nil
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		terms := make([]string, 0, len(g.Terms))
		for _, t := range g.Terms {
			terms = append(terms, fmt.Sprintf("%s (%d)", t.Term, t.Count))
		}
		rows = append(rows, []string{g.Category.String(), strings.Join(terms, ", ")})
	}
	fmt.Fprint(w, renderTable("Common terms", []string{"Category", "Terms"}, rows, nil))
	fmt.Fprintln(w)
	return nil
}

func renderHistogram(w io.Writer, rs domain.ResultSet) error {
	h, err := aggregate.ScoreHistogram(rs)
	if err != nil {
		return err
	}

	peak := 0
	for _, b := range h.Bins {
		peak = max(peak, b.Count)
	}

	rows := make([][]string, 0, len(h.Bins))
	for _, b := range h.Bins {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", b.Count*histogramBarMax/peak)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%+.2f .. %+.2f", b.Lower, b.Upper),
			fmt.Sprint(b.Count),
			bar,
		})
	}
	fmt.Fprint(w, renderTable("Score distribution", []string{"Score", "Posts", ""}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft}))
	return nil
}

// preview flattens a post to one line and shortens it for table display.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return text.Snip(s, postPreviewWidth, "…")
}
