package search

import (
	"testing"

	"github.com/hyperjump/binders/internal/keyword"
)

func TestNormalizeScores(t *testing.T) {
	got := NormalizeScores([]*keyword.KeywordResult{{ID: "a", Score: 4}, {ID: "b", Score: 1}})
	if got["a"] != 1 || got["b"] != 0.25 {
		t.Errorf("got %v", got)
	}
	if len(NormalizeScores(nil)) != 0 {
		t.Error("nil results should give an empty map")
	}
	zero := NormalizeScores([]*keyword.KeywordResult{{ID: "z", Score: 0}})
	if zero["z"] != 0 {
		t.Errorf("zero score: got %v", zero)
	}
}
