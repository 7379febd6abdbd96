package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// SuggestionStore is the data access the candidate generator needs
type SuggestionStore interface {
	FindLocations(ctx context.Context, q model.LocationLookup) ([]model.Location, error)
	FindProperties(ctx context.Context, q model.PropertyLookup) ([]model.PropertySummary, error)
	CountProperties(ctx context.Context, q model.PropertyCount) (int, error)
}

// Candidates is the unranked suggestion pool for one query
type Candidates struct {
	Suggestions []model.Suggestion
	// Degraded is set when at least one source failed and contributed nothing.
	Degraded bool
}

// CandidateGenerator gathers suggestion candidates from locations, the
// property type catalog and properties
type CandidateGenerator struct {
	store SuggestionStore
}

// NewCandidateGenerator creates a new candidate generator
func NewCandidateGenerator(store SuggestionStore) *CandidateGenerator {
	return &CandidateGenerator{store: store}
}

// Generate looks up all three sources concurrently and returns up to limit
// candidates: locations first, then property types, then properties.
// A failing source is logged and skipped. The only error returned is the
// context's, when the caller gave up.
func (g *CandidateGenerator) Generate(ctx context.Context, query string, limit int) (*Candidates, error) {
	q := utils.Normalize(query)
	if q == "" || limit <= 0 {
		return &Candidates{}, nil
	}

	var (
		locations  []model.Location
		types      []typeCount
		properties []model.PropertySummary
		mu         sync.Mutex
		degraded   bool
	)
	fail := func(source string, err error) {
		slog.Warn("suggestion source failed",
			slog.String("source", source),
			slog.String("query", q),
			slog.Any("error", err))
		mu.Lock()
		degraded = true
		mu.Unlock()
	}

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		res, err := g.store.FindLocations(gctx, model.LocationLookup{
			Substring:  q,
			ActiveOnly: true,
			Limit:      (limit + 1) / 2,
		})
		if err != nil {
			fail("locations", err)
			return nil
		}
		locations = res
		return nil
	})

	grp.Go(func() error {
		res, failed := g.countTypes(gctx, q)
		if failed != nil {
			fail("property_types", failed)
		}
		types = res
		return nil
	})

	grp.Go(func() error {
		// The real sub-limit depends on the other sources, so fetch up to the
		// full limit and trim once everything is in.
		res, err := g.store.FindProperties(gctx, model.PropertyLookup{
			Substring:     q,
			ActiveOnly:    true,
			AvailableOnly: true,
			Limit:         limit,
		})
		if err != nil {
			fail("properties", err)
			return nil
		}
		properties = res
		return nil
	})

	_ = grp.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Suggestion, 0, limit)
	for _, loc := range locations {
		out = append(out, locationSuggestion(loc))
	}
	for _, tc := range types {
		out = append(out, typeSuggestion(tc))
	}
	remaining := limit - len(out)
	for i := 0; i < len(properties) && i < remaining; i++ {
		out = append(out, propertySuggestion(properties[i]))
	}

	return &Candidates{Suggestions: out, Degraded: degraded}, nil
}

type typeCount struct {
	entry model.CatalogEntry
	count int
}

// countTypes counts inventory for every catalog entry whose label or key
// contains q. Entries without inventory, or whose count failed, are dropped.
func (g *CandidateGenerator) countTypes(ctx context.Context, q string) ([]typeCount, error) {
	var matched []model.CatalogEntry
	for _, entry := range model.Catalog {
		if catalogEntryMatches(entry, q) {
			matched = append(matched, entry)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	counts := make([]int, len(matched))
	errs := make([]error, len(matched))
	var grp errgroup.Group
	for i, entry := range matched {
		i, entry := i, entry
		grp.Go(func() error {
			counts[i], errs[i] = g.store.CountProperties(ctx, model.PropertyCount{
				Type:          entry.Type,
				ActiveOnly:    true,
				AvailableOnly: true,
			})
			return nil
		})
	}
	_ = grp.Wait()

	var (
		out    []typeCount
		failed error
	)
	for i, entry := range matched {
		if errs[i] != nil {
			failed = fmt.Errorf("count %s: %w", entry.Type, errs[i])
			continue
		}
		if counts[i] > 0 {
			out = append(out, typeCount{entry: entry, count: counts[i]})
		}
	}
	return out, failed
}

func catalogEntryMatches(entry model.CatalogEntry, q string) bool {
	key := strings.ToLower(string(entry.Type))
	return utils.ContainsFold(entry.Label, q) ||
		strings.Contains(key, q) ||
		strings.Contains(strings.ReplaceAll(key, "_", " "), q)
}

func locationSuggestion(loc model.Location) model.Suggestion {
	return model.Suggestion{
		Type:     model.SuggestionLocation,
		ID:       loc.ID,
		Title:    loc.Name,
		Subtitle: countLabel(loc.PropertyCount),
		Value:    loc.Name,
		Slug:     loc.Slug,
		Icon:     "map-pin",
	}
}

func typeSuggestion(tc typeCount) model.Suggestion {
	return model.Suggestion{
		Type:     model.SuggestionPropertyType,
		ID:       string(tc.entry.Type),
		Title:    tc.entry.Label,
		Subtitle: countLabel(tc.count),
		Value:    tc.entry.Label,
		Key:      string(tc.entry.Type),
		Icon:     tc.entry.Icon,
	}
}

func propertySuggestion(p model.PropertySummary) model.Suggestion {
	subtitle := p.PropertyType.Label()
	if p.LocationName != nil && *p.LocationName != "" {
		subtitle += " in " + *p.LocationName
	}
	return model.Suggestion{
		Type:     model.SuggestionProperty,
		ID:       p.ID,
		Title:    p.Title,
		Subtitle: subtitle,
		Value:    p.Title,
		Slug:     p.Slug,
		Icon:     "home",
	}
}

func countLabel(n int) string {
	if n == 1 {
		return "1 property"
	}
	return fmt.Sprintf("%d properties", n)
}
