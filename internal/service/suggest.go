package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// ErrInvalidQuery marks a query outside the accepted length bounds.
var ErrInvalidQuery = errors.New("invalid query")

// SuggestOptions bounds suggestion requests
type SuggestOptions struct {
	DefaultLimit   int
	MaxLimit       int
	MaxQueryLength int
}

// SuggestService parses queries into filters and produces ranked, cached
// autocomplete suggestions
type SuggestService struct {
	parsers   *ExtractorRegistry
	generator *CandidateGenerator
	ranker    *Ranker
	cache     SuggestionCache
	opts      SuggestOptions
}

// NewSuggestService creates a new suggest service. A nil cache disables caching.
func NewSuggestService(
	parsers *ExtractorRegistry,
	generator *CandidateGenerator,
	ranker *Ranker,
	cache SuggestionCache,
	opts SuggestOptions,
) *SuggestService {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 8
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = 100
	}
	return &SuggestService{
		parsers:   parsers,
		generator: generator,
		ranker:    ranker,
		cache:     cache,
		opts:      opts,
	}
}

// ValidateQuery checks the trimmed query length. An empty query is valid and
// simply yields nothing.
func (s *SuggestService) ValidateQuery(query string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(query)); n > s.opts.MaxQueryLength {
		return fmt.Errorf("%w: %d characters, at most %d allowed", ErrInvalidQuery, n, s.opts.MaxQueryLength)
	}
	return nil
}

// Parse runs only the filter extractor.
func (s *SuggestService) Parse(query string) model.ParsedQuery {
	if s.ValidateQuery(query) != nil {
		return model.ParsedQuery{}
	}
	return s.parsers.Current().Parse(query)
}

// ParseAndSuggest extracts filters from query and returns up to limit ranked
// suggestions. Source failures degrade the suggestions instead of failing; the
// only error is the context's when the caller cancelled. Cancelled or degraded
// results are never cached.
func (s *SuggestService) ParseAndSuggest(ctx context.Context, query string, limit int) (*model.SuggestResult, error) {
	result := &model.SuggestResult{Suggestions: []model.Suggestion{}}
	if strings.TrimSpace(query) == "" || s.ValidateQuery(query) != nil {
		return result, nil
	}
	limit = s.clampLimit(limit)

	extractor := s.parsers.Current()
	parsed := make(chan model.ParsedQuery, 1)
	go func() { parsed <- extractor.Parse(query) }()

	normalized := utils.Normalize(query)
	key := CacheKey(normalized, limit)

	if cached, ok := s.lookup(ctx, key); ok {
		result.ParsedFilters = <-parsed
		result.Suggestions = cached
		result.ServedFromCache = true
		return result, nil
	}

	candidates, err := s.generator.Generate(ctx, normalized, limit)
	result.ParsedFilters = <-parsed
	if err != nil {
		return nil, err
	}

	ranked := s.ranker.Rank(normalized, candidates.Suggestions, limit)
	if ranked == nil {
		ranked = []model.Suggestion{}
	}
	result.Suggestions = ranked

	if candidates.Degraded {
		slog.Info("serving degraded suggestions without caching", slog.String("query", normalized))
		return result, nil
	}
	s.store(ctx, key, ranked)
	return result, nil
}

func (s *SuggestService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

func (s *SuggestService) lookup(ctx context.Context, key string) ([]model.Suggestion, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("suggestion cache unavailable, computing fresh", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return cloneSuggestions(data), true
}

func (s *SuggestService) store(ctx context.Context, key string, data []model.Suggestion) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, cloneSuggestions(data)); err != nil {
		slog.Warn("suggestion cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

func cloneSuggestions(in []model.Suggestion) []model.Suggestion {
	out := make([]model.Suggestion, len(in))
	copy(out, in)
	return out
}
