package search

import (
	"context"
	"log/slog"

	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/index"
)

// Searcher answers free-text queries against a semantic index.
type Searcher struct {
	index       *index.Index
	minScore    float32
	hasMinScore bool
	logger      *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore drops results whose similarity is below score.
// The floor must lie in [-1, 1]. Default is no floor.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		if score < -1 || score > 1 {
			return ErrInvalidMinScore
		}
		s.minScore = score
		s.hasMinScore = true
		return nil
	}
}

// NewSearcher creates a new searcher over idx.
func NewSearcher(idx *index.Index, opts ...Option) (*Searcher, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		index:  idx,
		logger: slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindSimilar returns up to k records most similar to query, best first.
// k <= 0 selects index.DefaultTopK.
func (s *Searcher) FindSimilar(ctx context.Context, query string, k int) ([]core.QueryResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, k, nil)
}

// FindSimilarWithMonitor is FindSimilar with callbacks at each stage.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, k int, monitor SearchMonitor) ([]core.QueryResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	results, err := s.index.Query(ctx, query, k)
	if err != nil {
		s.logger.Error("error querying index", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterSearch(results)

	if s.hasMinScore {
		kept := results[:0]
		for _, result := range results {
			if result.Score >= s.minScore {
				kept = append(kept, result)
			}
		}
		if dropped := len(results) - len(kept); dropped > 0 {
			s.logger.Debug("dropped results below score floor", "dropped", dropped, "floor", s.minScore)
		}
		results = kept
	}

	monitor.Finish(results)
	return results, nil
}
