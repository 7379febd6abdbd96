package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// PropertyType is a member of the closed property type catalog.
type PropertyType string

const (
	PropertyTypeVilla       PropertyType = "VILLA"
	PropertyTypeHolidayHome PropertyType = "HOLIDAY_HOME"
	PropertyTypeFarmland    PropertyType = "FARMLAND"
	PropertyTypePlot        PropertyType = "PLOT"
	PropertyTypeApartment   PropertyType = "APARTMENT"
)

// CatalogEntry describes one property type for display and matching.
type CatalogEntry struct {
	Type  PropertyType
	Label string
	Icon  string
}

// Catalog lists every property type in declaration order. Matching walks it
// in this order, so the first entry that matches wins.
var Catalog = []CatalogEntry{
	{Type: PropertyTypeVilla, Label: "Villa", Icon: "home"},
	{Type: PropertyTypeHolidayHome, Label: "Holiday Home", Icon: "palmtree"},
	{Type: PropertyTypeFarmland, Label: "Farmland", Icon: "sprout"},
	{Type: PropertyTypePlot, Label: "Plot", Icon: "map"},
	{Type: PropertyTypeApartment, Label: "Apartment", Icon: "building"},
}

// CatalogEntryFor returns the catalog entry for t.
func CatalogEntryFor(t PropertyType) (CatalogEntry, bool) {
	for _, e := range Catalog {
		if e.Type == t {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// Valid reports whether t is in the catalog.
func (t PropertyType) Valid() bool {
	_, ok := CatalogEntryFor(t)
	return ok
}

// Label returns the human label, or the raw key for unknown types.
func (t PropertyType) Label() string {
	if e, ok := CatalogEntryFor(t); ok {
		return e.Label
	}
	return string(t)
}

// ParsePropertyType accepts a key ("holiday_home") or label ("Holiday Home").
func ParsePropertyType(s string) (PropertyType, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	t := PropertyType(norm)
	if !t.Valid() {
		return "", fmt.Errorf("unknown property type %q", s)
	}
	return t, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so request bodies accept
// either a key or a label and reject types outside the catalog.
func (t *PropertyType) UnmarshalText(text []byte) error {
	parsed, err := ParsePropertyType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer interface
func (t PropertyType) Value() (driver.Value, error) {
	return string(t), nil
}

// Scan implements sql.Scanner interface
func (t *PropertyType) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = ""
	case string:
		*t = PropertyType(v)
	case []byte:
		*t = PropertyType(v)
	default:
		return fmt.Errorf("cannot scan %T into PropertyType", value)
	}
	return nil
}
