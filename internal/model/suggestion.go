package model

import "time"

// ParsedQuery is the structured filter set extracted from a free-text query
type ParsedQuery struct {
	PropertyType *PropertyType `json:"property_type,omitempty"`
	Bedrooms     *int          `json:"bedrooms,omitempty"`
	MinPrice     *float64      `json:"min_price,omitempty"`
	MaxPrice     *float64      `json:"max_price,omitempty"`
	LocationHint *string       `json:"location_hint,omitempty"`
	FreeText     string        `json:"free_text"`
}

// IsEmpty reports whether no structured field was extracted and no text remains.
func (p *ParsedQuery) IsEmpty() bool {
	return p.PropertyType == nil && p.Bedrooms == nil && p.MinPrice == nil &&
		p.MaxPrice == nil && p.LocationHint == nil && p.FreeText == ""
}

// SuggestionType identifies which source produced a suggestion
type SuggestionType string

const (
	SuggestionLocation     SuggestionType = "location"
	SuggestionPropertyType SuggestionType = "property_type"
	SuggestionProperty     SuggestionType = "property"
)

// Priority orders suggestion sources when nothing else separates two candidates.
func (t SuggestionType) Priority() int {
	switch t {
	case SuggestionLocation:
		return 0
	case SuggestionPropertyType:
		return 1
	default:
		return 2
	}
}

// Suggestion is a single autocomplete candidate
type Suggestion struct {
	Type     SuggestionType `json:"type"`
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Value    string         `json:"value"`
	Slug     string         `json:"slug,omitempty"`
	Key      string         `json:"key,omitempty"`
	Icon     string         `json:"icon"`
}

// CacheEntry is a memoized ranked suggestion list
type CacheEntry struct {
	Key       string
	Data      []Suggestion
	Timestamp time.Time
}

// SuggestResult is the outcome of parsing and suggesting for one query
type SuggestResult struct {
	ParsedFilters   ParsedQuery  `json:"parsed_filters"`
	Suggestions     []Suggestion `json:"suggestions"`
	ServedFromCache bool         `json:"served_from_cache"`
}
