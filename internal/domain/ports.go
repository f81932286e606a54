package domain

import (
	"context"
	"errors"
)

// ErrUnsupportedLanguage is returned by a SentimentOracle when the text's
// language cannot be scored. It is a terminal state for the post, not a
// failure: the post is left out of the result set.
var ErrUnsupportedLanguage = errors.New("language not supported for sentiment analysis")

// ErrSearchFailed wraps any error from the post-search provider. A search
// failure aborts the whole query.
var ErrSearchFailed = errors.New("post search failed")

// ErrEmptyQuery is returned when a query has no search terms.
var ErrEmptyQuery = errors.New("query is required")

// PostSearcher finds posts matching a keyword query.
type PostSearcher interface {
	// SearchPosts returns up to limit posts matching query. Zero matches is an
	// empty slice and a nil error.
	SearchPosts(ctx context.Context, query string, limit int) ([]RawPost, error)
}

// SentimentOracle scores the sentiment of a text.
type SentimentOracle interface {
	// AnalyzeSentiment returns the document sentiment of text. It returns
	// ErrUnsupportedLanguage (possibly wrapped) when the text's language is
	// not supported.
	AnalyzeSentiment(ctx context.Context, text string) (SentimentResult, error)
}
