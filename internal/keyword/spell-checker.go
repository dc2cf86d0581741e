package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a dictionary term close to a query term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
}

// SpellCheckResult is the outcome of checking a query against the index terms.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	MisspelledTerms []string
	HasCorrections  bool
}

// SpellChecker suggests corrections for query terms missing from the index. The
// term list is cached until Invalidate is called.
type SpellChecker struct {
	dictionary  TermDictionary
	maxDistance int

	mu    sync.RWMutex
	terms []string
	set   map[string]struct{}
	valid bool
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// NewSpellChecker creates a SpellChecker over dict.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{dictionary: dict, maxDistance: 2}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the cached term list. Call it after the index changes.
func (s *SpellChecker) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

func (s *SpellChecker) load() ([]string, map[string]struct{}, error) {
	s.mu.RLock()
	if s.valid {
		terms, set := s.terms, s.set
		s.mu.RUnlock()
		return terms, set, nil
	}
	s.mu.RUnlock()

	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return nil, nil, err
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}
	s.mu.Lock()
	s.terms, s.set, s.valid = terms, set, true
	s.mu.Unlock()
	return terms, set, nil
}

// Suggest returns dictionary terms within the maximum distance of term, closest and
// most frequent first.
func (s *SpellChecker) Suggest(term string) ([]Suggestion, error) {
	terms, _, err := s.load()
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	var out []Suggestion
	for _, candidate := range terms {
		c := strings.ToLower(candidate)
		if c == term {
			continue
		}
		if diff := len(c) - len(term); diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := LevenshteinDistance(term, c)
		if d > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(candidate)
		if err != nil || freq < 1 {
			continue
		}
		out = append(out, Suggestion{Term: candidate, Distance: d, Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	return out, nil
}

// Check replaces each unknown query term with its best suggestion.
func (s *SpellChecker) Check(query string) (*SpellCheckResult, error) {
	_, set, err := s.load()
	if err != nil {
		return nil, err
	}
	res := &SpellCheckResult{OriginalQuery: query}
	terms := tokenizeQuery(query)
	corrected := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := set[term]; ok {
			corrected = append(corrected, term)
			continue
		}
		suggestions, err := s.Suggest(term)
		if err != nil {
			return nil, err
		}
		if len(suggestions) == 0 {
			corrected = append(corrected, term)
			continue
		}
		res.HasCorrections = true
		res.MisspelledTerms = append(res.MisspelledTerms, term)
		corrected = append(corrected, suggestions[0].Term)
	}
	res.CorrectedQuery = strings.Join(corrected, " ")
	return res, nil
}
