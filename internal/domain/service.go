package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultLimit is the number of valid posts collected when the caller
	// does not ask for a specific number.
	DefaultLimit = 100

	// DefaultFetchMultiplier sizes the search request relative to the limit
	// to make up for posts lost to filtering.
	DefaultFetchMultiplier = 2

	// DefaultScoringConcurrency is the number of oracle calls in flight.
	DefaultScoringConcurrency = 1
)

// IngestorConfig tunes the ingestion pipeline. Zero values select defaults.
type IngestorConfig struct {
	FetchMultiplier    int
	ScoringConcurrency int
}

// Counters tallies what happened to the posts of one query.
type Counters struct {
	Fetched             int `json:"fetched"`
	Valid               int `json:"valid"`
	SkippedVideos       int `json:"skipped_videos"`
	SkippedStarterPacks int `json:"skipped_starter_packs"`
	SkippedInvalid      int `json:"skipped_invalid"`
	Unsupported         int `json:"unsupported_language"`
	ScoringFailures     int `json:"scoring_failures"`
}

// Analysis is the result of running one query through the pipeline.
type Analysis struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	Limit     int           `json:"limit"`
	Posts     ResultSet     `json:"posts"`
	Counters  Counters      `json:"counters"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Outcome distinguishes the ways a query can end.
type Outcome string

const (
	OutcomeAnalyzed            Outcome = "analyzed"
	OutcomeNoMatches           Outcome = "no_matches"
	OutcomeAllFiltered         Outcome = "all_filtered"
	OutcomeUnsupportedLanguage Outcome = "unsupported_language"
)

// Outcome reports how the query ended.
func (a *Analysis) Outcome() Outcome {
	switch {
	case a.Counters.Fetched == 0:
		return OutcomeNoMatches
	case a.Counters.Valid == 0:
		return OutcomeAllFiltered
	case len(a.Posts) == 0 && a.Counters.Unsupported == a.Counters.Valid:
		return OutcomeUnsupportedLanguage
	default:
		return OutcomeAnalyzed
	}
}

// Message is a user-facing description of the outcome.
func (a *Analysis) Message() string {
	c := a.Counters
	switch a.Outcome() {
	case OutcomeNoMatches:
		return fmt.Sprintf("No posts found containing %q.", a.Query)
	case OutcomeAllFiltered:
		return fmt.Sprintf("No valid posts found after filtering. Skipped %d posts with videos and %d starter pack views. Try a different search term.",
			c.SkippedVideos, c.SkippedStarterPacks)
	case OutcomeUnsupportedLanguage:
		return fmt.Sprintf("None of the %d matching posts are in a language supported for sentiment analysis.", c.Valid)
	}

	msg := fmt.Sprintf("Found %d posts related to %q.", len(a.Posts), a.Query)
	if skipped := c.SkippedVideos + c.SkippedStarterPacks; skipped > 0 {
		msg += fmt.Sprintf(" Skipped %d posts with videos and %d starter pack views.", c.SkippedVideos, c.SkippedStarterPacks)
	}
	if c.Unsupported > 0 {
		msg += fmt.Sprintf(" %d posts were in unsupported languages.", c.Unsupported)
	}
	if c.ScoringFailures > 0 {
		msg += fmt.Sprintf(" %d posts could not be scored.", c.ScoringFailures)
	}
	return msg
}

// Stage names a step of the pipeline in progress reports.
type Stage string

const (
	StageFetched  Stage = "fetched"
	StageFiltered Stage = "filtered"
	StageScored   Stage = "scored"
)

// Progress reports pipeline progress. For StageScored, Done counts posts
// scored so far out of Total valid posts.
type Progress struct {
	Stage Stage `json:"stage"`
	Done  int   `json:"done"`
	Total int   `json:"total"`
}

// ProgressFunc receives progress reports. Calls are serialized.
type ProgressFunc func(Progress)

// Ingestor runs the fetch, filter, normalize, score and classify pipeline
// for a single query.
type Ingestor struct {
	searcher        PostSearcher
	oracle          SentimentOracle
	fetchMultiplier int
	concurrency     int
	logger          *slog.Logger
	now             func() time.Time
}

// NewIngestor creates an Ingestor backed by the given providers.
func NewIngestor(searcher PostSearcher, oracle SentimentOracle, cfg IngestorConfig, logger *slog.Logger) (*Ingestor, error) {
	if searcher == nil {
		return nil, errors.New("post searcher is required")
	}
	if oracle == nil {
		return nil, errors.New("sentiment oracle is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	multiplier := cfg.FetchMultiplier
	if multiplier < 1 {
		multiplier = DefaultFetchMultiplier
	}
	concurrency := cfg.ScoringConcurrency
	if concurrency < 1 {
		concurrency = DefaultScoringConcurrency
	}

	return &Ingestor{
		searcher:        searcher,
		oracle:          oracle,
		fetchMultiplier: multiplier,
		concurrency:     concurrency,
		logger:          logger,
		now:             time.Now,
	}, nil
}

// Run analyzes up to limit valid posts matching query. A limit <= 0 selects
// DefaultLimit. Zero matches is a valid, empty Analysis; a search failure
// returns an error wrapping ErrSearchFailed and no Analysis.
func (s *Ingestor) Run(ctx context.Context, query string, limit int) (*Analysis, error) {
	return s.RunWithProgress(ctx, query, limit, nil)
}

// RunWithProgress is Run with progress reporting. progress may be nil.
func (s *Ingestor) RunWithProgress(ctx context.Context, query string, limit int, progress ProgressFunc) (*Analysis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	started := s.now()
	analysis := &Analysis{
		ID:        uuid.NewString(),
		Query:     query,
		Limit:     limit,
		Posts:     ResultSet{},
		StartedAt: started.UTC(),
	}

	raw, err := s.searcher.SearchPosts(ctx, query, limit*s.fetchMultiplier)
	if err != nil {
		s.logger.Error("post search failed", "query", query, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	analysis.Counters.Fetched = len(raw)
	progress(Progress{Stage: StageFetched, Done: len(raw), Total: len(raw)})

	candidates := s.filter(raw, limit, &analysis.Counters)
	progress(Progress{Stage: StageFiltered, Done: len(candidates), Total: len(raw)})

	scored, err := s.scoreAll(ctx, candidates, progress)
	if err != nil {
		return nil, fmt.Errorf("score posts: %w", err)
	}

	for _, sp := range scored {
		if sp.unsupported {
			analysis.Counters.Unsupported++
			continue
		}
		if sp.post.ScoringFailed {
			analysis.Counters.ScoringFailures++
		}
		analysis.Posts = append(analysis.Posts, sp.post)
	}
	analysis.Duration = s.now().Sub(started)

	c := analysis.Counters
	s.logger.Info("query analyzed",
		"analysis_id", analysis.ID,
		"query", query,
		"fetched", c.Fetched,
		"valid", c.Valid,
		"analyzed", len(analysis.Posts),
		"skipped_videos", c.SkippedVideos,
		"skipped_starter_packs", c.SkippedStarterPacks,
		"skipped_invalid", c.SkippedInvalid,
		"unsupported_language", c.Unsupported,
		"scoring_failures", c.ScoringFailures,
		"duration", analysis.Duration,
	)
	return analysis, nil
}

// candidate is a valid post waiting to be scored.
type candidate struct {
	raw  *RawPost
	text string
}

// scoredPost is the scoring verdict for one candidate.
type scoredPost struct {
	post        AnalyzedPost
	unsupported bool
}

// filter applies ParsePost to raw in order and collects at most limit valid
// posts, tallying the rejected ones.
func (s *Ingestor) filter(raw []RawPost, limit int, counters *Counters) []candidate {
	candidates := make([]candidate, 0, min(limit, len(raw)))
	for i := range raw {
		parsed := ParsePost(&raw[i])
		switch {
		case parsed.HasVideo:
			counters.SkippedVideos++
		case parsed.HasStarterPack:
			counters.SkippedStarterPacks++
		case !parsed.IsValid:
			counters.SkippedInvalid++
		default:
			candidates = append(candidates, candidate{raw: &raw[i], text: parsed.Text})
		}
		if len(candidates) >= limit {
			break
		}
	}
	counters.Valid = len(candidates)
	return candidates
}

// scoreAll scores candidates with at most s.concurrency calls in flight.
// Results keep the candidates' order.
func (s *Ingestor) scoreAll(ctx context.Context, candidates []candidate, progress ProgressFunc) ([]scoredPost, error) {
	results := make([]scoredPost, len(candidates))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.score(gctx, c)

			mu.Lock()
			defer mu.Unlock()
			done++
			progress(Progress{Stage: StageScored, Done: done, Total: len(candidates)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Ingestor) score(ctx context.Context, c candidate) scoredPost {
	cleaned := NormalizeText(c.text)

	author := c.raw.AuthorName()
	if author == "" {
		author = c.raw.AuthorHandle()
	}

	post := AnalyzedPost{
		URI:         c.raw.URI,
		Text:        c.text,
		CleanedText: cleaned,
		CreatedAt:   c.raw.IndexedTime(),
		Author:      author,
	}

	result, err := s.oracle.AnalyzeSentiment(ctx, cleaned)
	switch {
	case errors.Is(err, ErrUnsupportedLanguage):
		s.logger.Debug("skipping post in unsupported language", "uri", c.raw.URI)
		return scoredPost{unsupported: true}
	case err != nil:
		s.logger.Warn("sentiment scoring failed, using neutral score", "uri", c.raw.URI, "error", err)
		post.ScoringFailed = true
	default:
		post.Score = result.Score
		post.Magnitude = result.Magnitude
	}
	post.Category = Classify(post.Score)

	return scoredPost{post: post}
}
