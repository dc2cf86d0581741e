package keyword

import (
	"errors"
	"testing"
)

type fakeDictionary struct {
	freqs map[string]int
	calls int
	err   error
}

func (f *fakeDictionary) GetAllTerms() ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	terms := make([]string, 0, len(f.freqs))
	for t := range f.freqs {
		terms = append(terms, t)
	}
	return terms, nil
}

func (f *fakeDictionary) GetTermFrequency(term string) (int, error) {
	return f.freqs[term], nil
}

func TestSpellChecker_Check(t *testing.T) {
	dict := &fakeDictionary{freqs: map[string]int{"assembly": 4, "manual": 2, "manuel": 1, "pump": 3}}
	sc := NewSpellChecker(dict)

	res, err := sc.Check("Asembly manul pump")
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasCorrections {
		t.Fatal("expected corrections")
	}
	if res.CorrectedQuery != "assembly manual pump" {
		t.Errorf("CorrectedQuery = %q", res.CorrectedQuery)
	}
	if len(res.MisspelledTerms) != 2 {
		t.Errorf("MisspelledTerms = %v", res.MisspelledTerms)
	}

	res, err = sc.Check("pump")
	if err != nil {
		t.Fatal(err)
	}
	if res.HasCorrections || res.CorrectedQuery != "pump" {
		t.Errorf("known term should pass through: %+v", res)
	}
	if dict.calls != 1 {
		t.Errorf("terms should be cached, loaded %d times", dict.calls)
	}
	sc.Invalidate()
	if _, err := sc.Check("pump"); err != nil {
		t.Fatal(err)
	}
	if dict.calls != 2 {
		t.Errorf("Invalidate should force a reload, loaded %d times", dict.calls)
	}
}

func TestSpellChecker_SuggestOrdering(t *testing.T) {
	dict := &fakeDictionary{freqs: map[string]int{"manual": 2, "manuel": 5, "annual": 9, "unrelated": 1}}
	sc := NewSpellChecker(dict, WithMaxDistance(1))

	got, err := sc.Suggest("manul")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Suggest: got %+v", got)
	}
	if got[0].Term != "manuel" || got[1].Term != "manual" {
		t.Errorf("same distance should rank by frequency: %+v", got)
	}
}

func TestSpellChecker_DictionaryError(t *testing.T) {
	sc := NewSpellChecker(&fakeDictionary{err: errors.New("closed")})
	if _, err := sc.Check("x"); err == nil {
		t.Error("expected dictionary error")
	}
}
