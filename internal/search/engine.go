// Package search runs keyword search over binders and shapes the results.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/binders/internal/config"
	"github.com/hyperjump/binders/internal/keyword"
	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/internal/storage"
)

const snippetLength = 160

// Engine runs keyword search and resolves hits to stored binders.
type Engine struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	spell        *keyword.SpellChecker
	config       *config.SearchConfig
	logger       *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSpellChecker enables "did you mean" suggestions for queries without hits.
func WithSpellChecker(s *keyword.SpellChecker) EngineOption {
	return func(e *Engine) { e.spell = s }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.Storage, keywordIndex keyword.KeywordIndex, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		storage:      store,
		keywordIndex: keywordIndex,
		config:       cfg,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Invalidate tells the engine that the index changed.
func (e *Engine) Invalidate() {
	if e.spell != nil {
		e.spell.Invalidate()
	}
}

// Search returns binder-level results. An exact query without hits is retried with
// fuzzy matching; if that also finds nothing a corrected query is suggested.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	opts := &keyword.SearchOptions{
		TitleBoost:   e.config.TitleBoost,
		FuzzyEnabled: query.FuzzyEnabled,
		Fuzziness:    e.config.Fuzziness,
		Language:     query.Language,
	}
	candidates := query.Offset + query.Limit
	hits, err := e.keywordIndex.Search(ctx, query.Query, candidates, opts)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	response := &models.SearchResponse{Query: query.Query}
	if len(hits) == 0 && !query.FuzzyEnabled {
		opts.FuzzyEnabled = true
		hits, err = e.keywordIndex.Search(ctx, query.Query, candidates, opts)
		if err != nil {
			return nil, fmt.Errorf("fuzzy keyword search failed: %w", err)
		}
		response.AutoFuzzy = len(hits) > 0
	}
	if len(hits) == 0 && e.spell != nil {
		if check, err := e.spell.Check(query.Query); err != nil {
			e.logger.Debug("spell check failed", zap.Error(err))
		} else if check.HasCorrections {
			response.Suggestion = check.CorrectedQuery
		}
	}

	scores := NormalizeScores(hits)
	start := min(query.Offset, len(hits))
	end := min(query.Offset+query.Limit, len(hits))
	response.Total = len(hits)
	response.Results = make([]*models.SearchResult, 0, end-start)
	for i, hit := range hits[start:end] {
		rec, err := e.storage.GetBinder(ctx, hit.ID)
		if errors.Is(err, storage.ErrBinderNotFound) {
			e.logger.Debug("index hit without stored binder", zap.String("id", hit.ID))
			continue
		}
		if err != nil {
			return nil, err
		}
		response.Results = append(response.Results, &models.SearchResult{
			BinderID: hit.ID,
			Title:    rec.Binder.Title(),
			Snippet:  Snippet(rec.Binder, query.Query, snippetLength),
			Score:    scores[hit.ID],
			Rank:     start + i + 1,
		})
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}
