package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"propsearch/internal/model"
)

// ErrInvalidFilters marks a filter combination that can never match.
var ErrInvalidFilters = errors.New("invalid filters")

// ListingStore is the data access the listing search needs
type ListingStore interface {
	SearchProperties(ctx context.Context, filters *model.ListingFilters, limit, offset int) ([]model.Property, int, error)
	GetPropertyBySlug(ctx context.Context, slug string) (*model.Property, error)
	SimilarProperties(ctx context.Context, slug string, limit int) ([]model.Property, error)
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
	LogSearch(ctx context.Context, entry *model.SearchLog) error
	LogFeedback(ctx context.Context, searchID, targetID, action string) error
}

// ListingOptions bounds listing pagination
type ListingOptions struct {
	DefaultPageSize int
	MaxPageSize     int
	MaxQueryLength  int
}

// SearchService handles property listing search built from parsed queries
type SearchService struct {
	store   ListingStore
	parsers *ExtractorRegistry
	opts    ListingOptions
}

// NewSearchService creates a new search service
func NewSearchService(store ListingStore, parsers *ExtractorRegistry, opts ListingOptions) *SearchService {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 12
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = 100
	}
	return &SearchService{
		store:   store,
		parsers: parsers,
		opts:    opts,
	}
}

// Search parses the free-text query, merges it with explicit filters and
// returns one page of active, available properties.
func (s *SearchService) Search(ctx context.Context, req *model.ListingRequest) (*model.ListingResponse, error) {
	startTime := time.Now()

	query := strings.TrimSpace(req.Query)
	if n := utf8.RuneCountInString(query); n > s.opts.MaxQueryLength {
		return nil, fmt.Errorf("%w: %d characters, at most %d allowed", ErrInvalidQuery, n, s.opts.MaxQueryLength)
	}

	var parsed *model.ParsedQuery
	if query != "" {
		p := s.parsers.Current().Parse(query)
		parsed = &p
	}

	filters := mergeFilters(req.Filters, parsed)
	if err := validateFilters(filters); err != nil {
		return nil, err
	}

	page, pageSize := s.pagination(req.Options)
	properties, total, err := s.store.SearchProperties(ctx, filters, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []model.Property{}
	}

	totalPages := (total + pageSize - 1) / pageSize
	took := time.Since(startTime).Milliseconds()
	searchID := uuid.NewString()

	// Log search (non-blocking)
	go func() {
		ids := make([]string, len(properties))
		for i, p := range properties {
			ids[i] = p.ID
		}
		entry := &model.SearchLog{
			SearchID:       searchID,
			Query:          query,
			Parsed:         parsed,
			ResultCount:    total,
			PropertyIDs:    ids,
			ResponseTimeMs: int(took),
		}
		if err := s.store.LogSearch(context.Background(), entry); err != nil {
			slog.Warn("failed to log search", slog.String("search_id", searchID), slog.Any("error", err))
		}
	}()

	return &model.ListingResponse{
		SearchID:   searchID,
		Results:    properties,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
		Parsed:     parsed,
		Filters:    *filters,
		Took:       took,
	}, nil
}

// GetProperty retrieves a single active property by slug
func (s *SearchService) GetProperty(ctx context.Context, slug string) (*model.Property, error) {
	return s.store.GetPropertyBySlug(ctx, slug)
}

// SimilarProperties returns the properties nearest to slug by embedding
func (s *SearchService) SimilarProperties(ctx context.Context, slug string, limit int) ([]model.Property, error) {
	if limit <= 0 || limit > s.opts.MaxPageSize {
		limit = s.opts.DefaultPageSize
	}
	return s.store.SimilarProperties(ctx, slug, limit)
}

// UpdateEmbeddings updates embeddings for multiple properties
func (s *SearchService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	return s.store.BatchUpdateEmbeddings(ctx, items)
}

// LogFeedback logs user feedback/action
func (s *SearchService) LogFeedback(ctx context.Context, searchID, targetID, action string) error {
	return s.store.LogFeedback(ctx, searchID, targetID, action)
}

func (s *SearchService) pagination(opts *model.ListingOptions) (page, size int) {
	page, size = 1, s.opts.DefaultPageSize
	if opts == nil {
		return page, size
	}
	if opts.Page > 1 {
		page = opts.Page
	}
	if opts.PageSize > 0 {
		size = min(opts.PageSize, s.opts.MaxPageSize)
	}
	return page, size
}

// mergeFilters overlays explicit filters on the ones parsed from the query.
// Explicit values win; parsed values fill the gaps.
func mergeFilters(explicit *model.ListingFilters, parsed *model.ParsedQuery) *model.ListingFilters {
	merged := &model.ListingFilters{}
	if explicit != nil {
		*merged = *explicit
	}
	if parsed == nil {
		return merged
	}

	if merged.PropertyType == nil && parsed.PropertyType != nil {
		merged.PropertyType = parsed.PropertyType
	}
	if merged.MinBedrooms == nil && parsed.Bedrooms != nil {
		merged.MinBedrooms = parsed.Bedrooms
	}
	if merged.MinPrice == nil && parsed.MinPrice != nil {
		merged.MinPrice = parsed.MinPrice
	}
	if merged.MaxPrice == nil && parsed.MaxPrice != nil {
		merged.MaxPrice = parsed.MaxPrice
	}
	if merged.Location == nil && parsed.LocationHint != nil {
		merged.Location = parsed.LocationHint
	}
	if merged.FreeText == "" {
		merged.FreeText = parsed.FreeText
	}
	return merged
}

func validateFilters(f *model.ListingFilters) error {
	if f.PropertyType != nil && !f.PropertyType.Valid() {
		return fmt.Errorf("%w: unknown property type %q", ErrInvalidFilters, *f.PropertyType)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return fmt.Errorf("%w: min_price %.0f is above max_price %.0f", ErrInvalidFilters, *f.MinPrice, *f.MaxPrice)
	}
	if f.MinBedrooms != nil && *f.MinBedrooms < 0 {
		return fmt.Errorf("%w: negative bedroom count", ErrInvalidFilters)
	}
	return nil
}
