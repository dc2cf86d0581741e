package search

import (
	"strings"

	"github.com/hyperjump/binders/internal/config"
	"github.com/hyperjump/binders/internal/models"
)

// ProcessQuery trims the query text and applies the configured limits.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	query.Query = strings.TrimSpace(query.Query)
	query.Language = strings.ToLower(strings.TrimSpace(query.Language))
	if cfg == nil {
		return query.Validate(0, 0)
	}
	return query.Validate(cfg.DefaultLimit, cfg.MaxLimit)
}
