package model

// LocationLookup selects locations whose name or slug contains Substring.
// Results come back featured first, then by property count descending.
type LocationLookup struct {
	Substring  string
	ActiveOnly bool
	Limit      int
}

// PropertyLookup selects properties whose title or description contains
// Substring. Results come back featured first, then by views descending.
type PropertyLookup struct {
	Substring     string
	ActiveOnly    bool
	AvailableOnly bool
	Limit         int
}

// PropertyCount counts properties of one type.
type PropertyCount struct {
	Type          PropertyType
	ActiveOnly    bool
	AvailableOnly bool
}
