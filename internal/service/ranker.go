package service

import (
	"sort"
	"strings"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// Ranker orders pooled suggestion candidates and caps the list length
type Ranker struct{}

// NewRanker creates a new ranker
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank sorts candidates for query and truncates the result to limit.
//
// Ordering, most significant first: a title equal to the query, a title that
// starts with the query, then source priority (location, property type,
// property). Equal candidates keep their collection order.
func (r *Ranker) Rank(query string, candidates []model.Suggestion, limit int) []model.Suggestion {
	q := utils.Normalize(query)

	type scored struct {
		s      model.Suggestion
		exact  bool
		prefix bool
	}
	items := make([]scored, len(candidates))
	for i, c := range candidates {
		title := utils.Normalize(c.Title)
		items[i] = scored{
			s:      c,
			exact:  title == q,
			prefix: strings.HasPrefix(title, q),
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.exact != b.exact {
			return a.exact
		}
		if a.prefix != b.prefix {
			return a.prefix
		}
		return a.s.Type.Priority() < b.s.Type.Priority()
	})

	if limit < 0 {
		limit = 0
	}
	if len(items) > limit {
		items = items[:limit]
	}

	results := make([]model.Suggestion, len(items))
	for i, it := range items {
		results[i] = it.s
	}
	return results
}
