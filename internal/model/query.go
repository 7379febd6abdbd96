package model

// ListingRequest represents a property listing search request
type ListingRequest struct {
	Query   string          `json:"query"`
	Filters *ListingFilters `json:"filters,omitempty"`
	Options *ListingOptions `json:"options,omitempty"`
}

// ListingFilters represents structured listing filters
type ListingFilters struct {
	PropertyType *PropertyType `json:"property_type,omitempty"`
	MinBedrooms  *int          `json:"min_bedrooms,omitempty"` // at least this many bedrooms
	MinPrice     *float64      `json:"min_price,omitempty"`
	MaxPrice     *float64      `json:"max_price,omitempty"`
	Location     *string       `json:"location,omitempty"` // name or slug
	FreeText     string        `json:"free_text,omitempty"`
}

// ListingOptions represents pagination options
type ListingOptions struct {
	PageSize int `json:"page_size"`
	Page     int `json:"page"`
}

// ListingResponse represents a paginated property listing response
type ListingResponse struct {
	SearchID   string         `json:"search_id"`
	Results    []Property     `json:"results"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	HasMore    bool           `json:"has_more"`
	Parsed     *ParsedQuery   `json:"parsed,omitempty"`
	Filters    ListingFilters `json:"filters"`
	Took       int64          `json:"took_ms"` // Response time in milliseconds
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem represents a single embedding for one property
type EmbeddingItem struct {
	PropertyID string    `json:"property_id" binding:"required"`
	Embedding  []float32 `json:"embedding" binding:"required"`
	Text       string    `json:"text,omitempty"` // The text used to generate embedding
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// FeedbackRequest represents user feedback on a search or suggestion
type FeedbackRequest struct {
	SearchID string `json:"search_id" binding:"required"`
	TargetID string `json:"target_id" binding:"required"` // property, location or type key
	Action   string `json:"action" binding:"required"`    // click, contact, view_details
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SearchLog records one listing search for analytics
type SearchLog struct {
	SearchID       string
	Query          string
	Parsed         *ParsedQuery
	ResultCount    int
	PropertyIDs    []string
	ResponseTimeMs int
}
