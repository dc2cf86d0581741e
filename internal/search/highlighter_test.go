package search

import (
	"testing"

	"github.com/hyperjump/binders/internal/models"
)

func TestHighlight(t *testing.T) {
	if Highlight("short", 10) != "short" {
		t.Error("short string should be unchanged")
	}
	if Highlight("long text here", 4) != "long..." {
		t.Errorf("got %s", Highlight("long text here", 4))
	}
	if Highlight("x", 0) != "x" {
		t.Error("maxLen 0 should return as-is")
	}
	if got := Highlight("héllo wörld", 5); got != "héllo..." {
		t.Errorf("rune-aware cut: got %s", got)
	}
}

func TestSnippet(t *testing.T) {
	b := models.NewBinder("b1", "en", "Manual",
		[]string{"", "Unpack the box."},
		[]string{"Attach the pump hose."})

	if got := Snippet(b, "PUMP", 100); got != "Attach the pump hose." {
		t.Errorf("matching paragraph: got %q", got)
	}
	if got := Snippet(b, "missing", 100); got != "Unpack the box." {
		t.Errorf("fallback paragraph: got %q", got)
	}
	if got := Snippet(models.NewBinder("e", "en", "Empty"), "x", 100); got != "" {
		t.Errorf("empty binder: got %q", got)
	}
}
