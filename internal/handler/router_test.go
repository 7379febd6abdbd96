package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsearch/internal/model"
	"propsearch/internal/service"
)

// stubStore serves a fixed catalog for every handler.
type stubStore struct {
	listing []model.Property
}

func (s *stubStore) FindLocations(ctx context.Context, q model.LocationLookup) ([]model.Location, error) {
	if strings.Contains("goa", q.Substring) {
		return []model.Location{{ID: "loc-goa", Name: "Goa", Slug: "goa", IsActive: true, PropertyCount: 4}}, nil
	}
	return nil, nil
}

func (s *stubStore) FindProperties(ctx context.Context, q model.PropertyLookup) ([]model.PropertySummary, error) {
	return nil, nil
}

func (s *stubStore) CountProperties(ctx context.Context, q model.PropertyCount) (int, error) {
	return 2, nil
}

func (s *stubStore) ListActiveLocations(ctx context.Context) ([]model.Location, error) {
	return []model.Location{{ID: "loc-goa", Name: "Goa", Slug: "goa", IsActive: true}}, nil
}

func (s *stubStore) SearchProperties(ctx context.Context, filters *model.ListingFilters, limit, offset int) ([]model.Property, int, error) {
	return s.listing, len(s.listing), nil
}

func (s *stubStore) GetPropertyBySlug(ctx context.Context, slug string) (*model.Property, error) {
	for i := range s.listing {
		if s.listing[i].Slug == slug {
			return &s.listing[i], nil
		}
	}
	return nil, nil
}

func (s *stubStore) SimilarProperties(ctx context.Context, slug string, limit int) ([]model.Property, error) {
	return s.listing, nil
}

func (s *stubStore) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	return len(items), nil
}

func (s *stubStore) LogSearch(ctx context.Context, entry *model.SearchLog) error { return nil }

func (s *stubStore) LogFeedback(ctx context.Context, searchID, targetID, action string) error {
	if searchID != "s1" {
		return fmt.Errorf("search %s: %w", searchID, model.ErrNotFound)
	}
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &stubStore{listing: []model.Property{
		{ID: "p1", Title: "Sea View Villa", Slug: "sea-view-villa", PropertyType: model.PropertyTypeVilla},
	}}
	registry := service.NewExtractorRegistry(store, nil)
	require.NoError(t, registry.Refresh(context.Background()))

	cache := service.NewMemoryCache(service.MemoryCacheOptions{TTL: time.Minute})
	suggest := service.NewSuggestService(registry, service.NewCandidateGenerator(store), service.NewRanker(), cache,
		service.SuggestOptions{DefaultLimit: 8, MaxLimit: 20, MaxQueryLength: 100})
	search := service.NewSearchService(store, registry, service.ListingOptions{DefaultPageSize: 12, MaxPageSize: 50})

	return NewRouter(RouterConfig{
		Build:     BuildInfo{Version: "test"},
		Suggest:   NewSuggestHandler(suggest),
		Search:    NewSearchHandler(search),
		Embedding: NewEmbeddingHandler(search, 3),
		Feedback:  NewFeedbackHandler(search),
	})
}

func do(router *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSuggestions(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/search/suggestions?q=goa&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var result model.SuggestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, "loc-goa", result.Suggestions[0].ID)
	require.NotNil(t, result.ParsedFilters.LocationHint)
	assert.Equal(t, "Goa", *result.ParsedFilters.LocationHint)

	w = do(router, http.MethodGet, "/api/v1/search/suggestions?q=goa&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestSuggestions_EmptyQuery(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/search/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, mustField(t, w.Body.Bytes(), "suggestions"))
}

func TestSuggestions_BadRequests(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		target string
	}{
		{name: "query too long", target: "/api/v1/search/suggestions?q=" + strings.Repeat("a", 101)},
		{name: "non numeric limit", target: "/api/v1/search/suggestions?q=goa&limit=abc"},
		{name: "zero limit", target: "/api/v1/search/suggestions?q=goa&limit=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestParse(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/search/parse?q=2bhk+villa+goa+under+2cr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"property_type":"VILLA","bedrooms":2,"max_price":20000000,"location_hint":"Goa","free_text":""}`,
		mustField(t, w.Body.Bytes(), "parsed_filters"))
}

func TestSearch(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/search", map[string]any{"query": "villa in goa"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ListingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SearchID)
	assert.Equal(t, 1, resp.Total)
	require.NotNil(t, resp.Filters.PropertyType)
	assert.Equal(t, model.PropertyTypeVilla, *resp.Filters.PropertyType)

	w = do(router, http.MethodPost, "/api/v1/search", map[string]any{
		"filters": map[string]any{"min_price": 5, "max_price": 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProperty(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/properties/sea-view-villa", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/properties/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmbeddingBatch(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/embeddings/batch", map[string]any{
		"embeddings": []map[string]any{{"property_id": "p1", "embedding": []float32{0.1, 0.2, 0.3}}},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/embeddings/batch", map[string]any{
		"embeddings": []map[string]any{{"property_id": "p1", "embedding": []float32{0.1}}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "index 0")
}

func TestFeedback(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/feedback", map[string]any{
		"search_id": "s1", "target_id": "p1", "action": "click",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/feedback", map[string]any{
		"search_id": "s1", "target_id": "p1", "action": "share",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/v1/feedback", map[string]any{
		"search_id": "unknown", "target_id": "p1", "action": "click",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), `"success":true`)
}

func TestSearch_PropertyTypeBinding(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/search", map[string]any{
		"filters": map[string]any{"property_type": "holiday home"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"HOLIDAY_HOME"`, mustField(t, []byte(mustField(t, w.Body.Bytes(), "filters")), "property_type"))

	w = do(router, http.MethodPost, "/api/v1/search", map[string]any{
		"filters": map[string]any{"property_type": "castle"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndNoRoute(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)

	w = do(router, http.MethodGet, "/api/v2/nothing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestID_ReusesValidHeader(t *testing.T) {
	router := newTestRouter(t)
	id := "0f8fad5b-d9cb-469f-a165-70867728950e"

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
}

func mustField(t *testing.T, body []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	raw, ok := m[field]
	require.True(t, ok, "missing field %q", field)
	return string(raw)
}
