package service

import (
	"context"
	"errors"
	"sync"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

var errStoreDown = errors.New("store down")

// fakeStore is an in-memory stand-in for the PostgreSQL repository.
type fakeStore struct {
	mu sync.Mutex

	locations   []model.Location
	properties  []model.PropertySummary
	counts      map[model.PropertyType]int
	locationErr error
	propertyErr error
	countErr    error

	locationCalls []model.LocationLookup
	propertyCalls []model.PropertyLookup
	countCalls    int

	listing      []model.Property
	total        int
	searchErr    error
	lastFilters  *model.ListingFilters
	lastLimit    int
	lastOffset   int
	searchLogs   []*model.SearchLog
	feedbackLogs []string

	activeErr error
}

func (f *fakeStore) FindLocations(ctx context.Context, q model.LocationLookup) ([]model.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locationCalls = append(f.locationCalls, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.locationErr != nil {
		return nil, f.locationErr
	}
	var out []model.Location
	for _, loc := range f.locations {
		if len(out) == q.Limit {
			break
		}
		if utils.ContainsFold(loc.Name, q.Substring) || utils.ContainsFold(loc.Slug, q.Substring) {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (f *fakeStore) FindProperties(ctx context.Context, q model.PropertyLookup) ([]model.PropertySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.propertyCalls = append(f.propertyCalls, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.propertyErr != nil {
		return nil, f.propertyErr
	}
	var out []model.PropertySummary
	for _, p := range f.properties {
		if len(out) == q.Limit {
			break
		}
		if utils.ContainsFold(p.Title, q.Substring) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CountProperties(ctx context.Context, q model.PropertyCount) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[q.Type], nil
}

func (f *fakeStore) ListActiveLocations(ctx context.Context) ([]model.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	return f.locations, nil
}

func (f *fakeStore) SearchProperties(ctx context.Context, filters *model.ListingFilters, limit, offset int) ([]model.Property, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilters = filters
	f.lastLimit = limit
	f.lastOffset = offset
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	return f.listing, f.total, nil
}

func (f *fakeStore) GetPropertyBySlug(ctx context.Context, slug string) (*model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.listing {
		if f.listing[i].Slug == slug {
			p := f.listing[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SimilarProperties(ctx context.Context, slug string, limit int) ([]model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	var out []model.Property
	for _, p := range f.listing {
		if p.Slug != slug && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	var errs []string
	success := 0
	for _, item := range items {
		if item.PropertyID == "missing" {
			errs = append(errs, "property missing not found")
			continue
		}
		success++
	}
	return success, errs
}

func (f *fakeStore) LogSearch(ctx context.Context, entry *model.SearchLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchLogs = append(f.searchLogs, entry)
	return nil
}

func (f *fakeStore) LogFeedback(ctx context.Context, searchID, targetID, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedbackLogs = append(f.feedbackLogs, searchID+"/"+targetID+"/"+action)
	return nil
}

func (f *fakeStore) locationCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.locationCalls)
}

func (f *fakeStore) loggedSearches() []*model.SearchLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.SearchLog(nil), f.searchLogs...)
}

// failingCache reports every lookup and write as failed.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]model.Suggestion, bool, error) {
	return nil, false, errStoreDown
}

func (failingCache) Set(context.Context, string, []model.Suggestion) error {
	return errStoreDown
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		locations: testLocations(),
		properties: []model.PropertySummary{
			{ID: "p1", Title: "Sea View Villa", Slug: "sea-view-villa", PropertyType: model.PropertyTypeVilla, LocationName: strPtr("Goa")},
			{ID: "p2", Title: "Villa Verde", Slug: "villa-verde", PropertyType: model.PropertyTypeVilla},
			{ID: "p3", Title: "Goa Holiday Cottage", Slug: "goa-holiday-cottage", PropertyType: model.PropertyTypeHolidayHome, LocationName: strPtr("North Goa")},
		},
		counts: map[model.PropertyType]int{
			model.PropertyTypeVilla:       5,
			model.PropertyTypeHolidayHome: 1,
		},
	}
}
