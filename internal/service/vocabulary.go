package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"propsearch/internal/model"
)

// LocationSource lists the active locations the query parser should know.
type LocationSource interface {
	ListActiveLocations(ctx context.Context) ([]model.Location, error)
}

// ExtractorRegistry hands out the current FilterExtractor and rebuilds it when
// the location vocabulary is refreshed. Each extractor is an immutable
// snapshot, so a parse in flight is unaffected by a concurrent refresh.
type ExtractorRegistry struct {
	source  LocationSource
	rules   []Rule
	current atomic.Pointer[FilterExtractor]
}

// NewExtractorRegistry creates a registry that starts with an empty vocabulary.
func NewExtractorRegistry(source LocationSource, rules []Rule) *ExtractorRegistry {
	r := &ExtractorRegistry{source: source, rules: rules}
	r.current.Store(NewFilterExtractor(NewVocabulary(nil), rules))
	return r
}

// Current returns the extractor for the latest vocabulary snapshot.
func (r *ExtractorRegistry) Current() *FilterExtractor {
	return r.current.Load()
}

// Refresh reloads locations and swaps in a new extractor. On failure the
// previous snapshot stays in place.
func (r *ExtractorRegistry) Refresh(ctx context.Context) error {
	locations, err := r.source.ListActiveLocations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load locations: %w", err)
	}
	r.current.Store(NewFilterExtractor(NewVocabulary(locations), r.rules))
	slog.Debug("query vocabulary refreshed", slog.Int("locations", len(locations)))
	return nil
}

// Run refreshes every interval until ctx is done.
func (r *ExtractorRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				slog.Warn("query vocabulary refresh failed, keeping previous snapshot", slog.Any("error", err))
			}
		}
	}
}
