package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsearch/internal/model"
)

func TestCandidateGenerator_Sources(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		limit   int
		wantIDs []string
	}{
		{
			name:    "type then matching properties",
			query:   "villa",
			limit:   8,
			wantIDs: []string{"VILLA", "p1", "p2"},
		},
		{
			name:    "locations then properties",
			query:   "goa",
			limit:   8,
			wantIDs: []string{"loc-goa", "loc-ngoa", "p3"},
		},
		{
			name:    "single inventory type",
			query:   "holiday",
			limit:   8,
			wantIDs: []string{"HOLIDAY_HOME", "p3"},
		},
		{
			name:    "zero inventory type is suppressed",
			query:   "plot",
			limit:   8,
			wantIDs: []string{},
		},
		{
			name:    "locations capped at half the limit",
			query:   "goa",
			limit:   2,
			wantIDs: []string{"loc-goa", "p3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewCandidateGenerator(newFakeStore())

			got, err := gen.Generate(context.Background(), tt.query, tt.limit)
			require.NoError(t, err)
			assert.False(t, got.Degraded)
			assert.Equal(t, tt.wantIDs, ids(got.Suggestions))
			assert.LessOrEqual(t, len(got.Suggestions), tt.limit)
		})
	}
}

func TestCandidateGenerator_SubLimits(t *testing.T) {
	store := newFakeStore()
	gen := NewCandidateGenerator(store)

	_, err := gen.Generate(context.Background(), "goa", 5)
	require.NoError(t, err)

	require.Len(t, store.locationCalls, 1)
	assert.Equal(t, 3, store.locationCalls[0].Limit)
	assert.True(t, store.locationCalls[0].ActiveOnly)

	require.Len(t, store.propertyCalls, 1)
	assert.Equal(t, 5, store.propertyCalls[0].Limit)
	assert.True(t, store.propertyCalls[0].ActiveOnly)
	assert.True(t, store.propertyCalls[0].AvailableOnly)
}

func TestCandidateGenerator_SuggestionShape(t *testing.T) {
	gen := NewCandidateGenerator(newFakeStore())

	got, err := gen.Generate(context.Background(), "Sea View", 8)
	require.NoError(t, err)
	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, model.Suggestion{
		Type:     model.SuggestionProperty,
		ID:       "p1",
		Title:    "Sea View Villa",
		Subtitle: "Villa in Goa",
		Value:    "Sea View Villa",
		Slug:     "sea-view-villa",
		Icon:     "home",
	}, got.Suggestions[0])

	got, err = gen.Generate(context.Background(), "villa", 8)
	require.NoError(t, err)
	require.NotEmpty(t, got.Suggestions)
	typ := got.Suggestions[0]
	assert.Equal(t, model.SuggestionPropertyType, typ.Type)
	assert.Equal(t, "VILLA", typ.Key)
	assert.Equal(t, "5 properties", typ.Subtitle)

	got, err = gen.Generate(context.Background(), "goa", 8)
	require.NoError(t, err)
	require.NotEmpty(t, got.Suggestions)
	assert.Equal(t, "40 properties", got.Suggestions[0].Subtitle)
	assert.Equal(t, "map-pin", got.Suggestions[0].Icon)
}

func TestCandidateGenerator_SourceFailureDegrades(t *testing.T) {
	store := newFakeStore()
	store.locationErr = errStoreDown
	gen := NewCandidateGenerator(store)

	got, err := gen.Generate(context.Background(), "goa", 8)
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Equal(t, []string{"p3"}, ids(got.Suggestions))
}

func TestCandidateGenerator_CountFailureDegrades(t *testing.T) {
	store := newFakeStore()
	store.countErr = errStoreDown
	gen := NewCandidateGenerator(store)

	got, err := gen.Generate(context.Background(), "villa", 8)
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Equal(t, []string{"p1", "p2"}, ids(got.Suggestions))
}

func TestCandidateGenerator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := NewCandidateGenerator(newFakeStore()).Generate(ctx, "goa", 8)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestCandidateGenerator_EmptyQuery(t *testing.T) {
	store := newFakeStore()

	got, err := NewCandidateGenerator(store).Generate(context.Background(), "   ", 8)
	require.NoError(t, err)
	assert.Empty(t, got.Suggestions)
	assert.Empty(t, store.locationCalls)
	assert.Empty(t, store.propertyCalls)
	assert.Zero(t, store.countCalls)
}
