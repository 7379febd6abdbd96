package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Location represents a browsable area properties belong to
type Location struct {
	ID            string `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Slug          string `json:"slug" db:"slug"`
	IsActive      bool   `json:"is_active" db:"is_active"`
	IsFeatured    bool   `json:"is_featured" db:"is_featured"`
	PropertyCount int    `json:"property_count" db:"property_count"`
}

// PropertySummary is the slice of a property used for suggestion matching
type PropertySummary struct {
	ID           string       `json:"id" db:"id"`
	Title        string       `json:"title" db:"title"`
	Slug         string       `json:"slug" db:"slug"`
	PropertyType PropertyType `json:"property_type" db:"property_type"`
	Bedrooms     *int         `json:"bedrooms,omitempty" db:"bedrooms"`
	LocationID   *string      `json:"location_id,omitempty" db:"location_id"`
	LocationName *string      `json:"location_name,omitempty" db:"location_name"`
}

// Property represents a full property listing
type Property struct {
	ID           string          `json:"id" db:"id"`
	Title        string          `json:"title" db:"title"`
	Slug         string          `json:"slug" db:"slug"`
	Description  *string         `json:"description,omitempty" db:"description"`
	PropertyType PropertyType    `json:"property_type" db:"property_type"`
	Price        *float64        `json:"price,omitempty" db:"price"`
	Bedrooms     *int            `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms    *int            `json:"bathrooms,omitempty" db:"bathrooms"`
	AreaSqft     *float64        `json:"area_sqft,omitempty" db:"area_sqft"`
	LocationID   *string         `json:"location_id,omitempty" db:"location_id"`
	LocationName *string         `json:"location_name,omitempty" db:"location_name"`
	LocationSlug *string         `json:"location_slug,omitempty" db:"location_slug"`
	Images       JSONArray       `json:"images,omitempty" db:"images"`
	Amenities    JSONArray       `json:"amenities,omitempty" db:"amenities"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	IsAvailable  bool            `json:"is_available" db:"is_available"`
	IsFeatured   bool            `json:"is_featured" db:"is_featured"`
	Views        int             `json:"views" db:"views"`
	Embedding    pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
