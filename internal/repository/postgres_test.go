package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"propsearch/internal/model"
)

func TestBuildListingWhere(t *testing.T) {
	villa := model.PropertyTypeVilla
	beds := 2
	maxPrice := 20_000_000.0
	goa := "Goa"

	t.Run("no filters keeps status clauses", func(t *testing.T) {
		where, args := buildListingWhere(nil)
		assert.Equal(t, "p.is_active = true AND p.is_available = true", where)
		assert.Empty(t, args)
	})

	t.Run("parsed scenario", func(t *testing.T) {
		where, args := buildListingWhere(&model.ListingFilters{
			PropertyType: &villa,
			MinBedrooms:  &beds,
			MaxPrice:     &maxPrice,
			Location:     &goa,
		})
		assert.Equal(t,
			"p.is_active = true AND p.is_available = true"+
				" AND p.property_type = $1"+
				" AND p.bedrooms >= $2"+
				" AND p.price <= $3"+
				" AND (LOWER(l.name) = LOWER($4) OR l.slug = LOWER($4))",
			where)
		assert.Equal(t, []interface{}{"VILLA", 2, 20_000_000.0, "Goa"}, args)
	})

	t.Run("free text uses escaped contains pattern", func(t *testing.T) {
		minPrice := 5_000_000.0
		where, args := buildListingWhere(&model.ListingFilters{
			MinPrice: &minPrice,
			FreeText: "100% sea_view",
		})
		assert.Contains(t, where, "p.price >= $1")
		assert.Contains(t, where, "(p.title ILIKE $2 OR p.description ILIKE $2)")
		assert.Equal(t, []interface{}{5_000_000.0, `%100\% sea\_view%`}, args)
	})
}

func TestStatusClauses(t *testing.T) {
	assert.Empty(t, statusClauses(false, false))
	assert.Equal(t, []string{"p.is_active = true"}, statusClauses(true, false))
	assert.Equal(t, []string{"p.is_active = true", "p.is_available = true"}, statusClauses(true, true))
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%goa%", containsPattern("goa"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}
