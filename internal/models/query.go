package models

import "fmt"

// SearchQuery represents a full-text search over binder titles and paragraphs.
type SearchQuery struct {
	Query        string `json:"query" validate:"required"`
	Limit        int    `json:"limit,omitempty" validate:"gte=0"`
	Offset       int    `json:"offset,omitempty" validate:"gte=0"`
	FuzzyEnabled bool   `json:"fuzzy_enabled,omitempty"`                       // typo tolerance
	Language     string `json:"language,omitempty" validate:"omitempty,len=2"` // restrict hits to one iso639_1 code
}

// Validate ensures the query is non-empty and clamps the limit to [1, maxLimit].
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return nil
}
