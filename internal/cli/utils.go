// Package cli formats command output for the binders CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/binders/internal/editor"
	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/pkg/utils"
)

// OutputFormat selects how command results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d binders in %dms", response.Total, response.QueryTime)
	if response.AutoFuzzy {
		fmt.Fprint(w, " (fuzzy)")
	}
	fmt.Fprintln(w)
	if response.Suggestion != "" {
		fmt.Fprintf(w, "Did you mean: %s\n", response.Suggestion)
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", result.Rank, result.Score)
		fmt.Fprintf(w, "ID: %s\n", result.BinderID)
		if result.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", result.Title)
		}
		if result.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Snippet, 200))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteBinder writes a stored binder. Text output lists the chunks of the first text
// module with their visual counts.
func WriteBinder(w io.Writer, rec *models.BinderRecord, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, rec)
	}
	b := rec.Binder
	fmt.Fprintf(w, "ID: %s\n", b.ID)
	fmt.Fprintf(w, "Title: %s\n", b.Title())
	fmt.Fprintf(w, "Version: %s | Revision: %d | Log entries: %d\n", b.BindersVersion, rec.Revision, len(b.Log))
	langs := make([]string, 0, len(b.Languages))
	for _, l := range b.Languages {
		langs = append(langs, l.ISO639_1)
	}
	fmt.Fprintf(w, "Languages: %s\n", strings.Join(langs, ", "))
	if len(b.Modules.Text.Chunked) == 0 {
		return nil
	}
	text := b.Modules.Text.Chunked[0]
	fmt.Fprintf(w, "\nChunks (%s):\n", text.ModuleKey)
	for i, chunk := range text.Chunks {
		visuals := 0
		if len(b.Modules.Images.Chunked) > 0 && i < len(b.Modules.Images.Chunked[0].Chunks) {
			visuals = len(b.Modules.Images.Chunked[0].Chunks[i])
		}
		fmt.Fprintf(w, "[%d] %s", i, utils.Truncate(strings.Join(chunk, " "), 80))
		if visuals > 0 {
			fmt.Fprintf(w, " (%d visuals)", visuals)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteLog writes binder log entries.
func WriteLog(w io.Writer, entries []models.LogEntry, format OutputFormat) error {
	if format == OutputJSON {
		if entries == nil {
			entries = []models.LogEntry{}
		}
		return WriteJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No log entries")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%4d  %s  %-26s chunks=%v", e.Version, e.RecordedAt.Format("2006-01-02 15:04:05"), e.Kind, e.ChunkIndices)
		if e.ModuleKey != "" {
			fmt.Fprintf(w, " module=%s", e.ModuleKey)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteImport writes the outcome of an import.
func WriteImport(w io.Writer, res *editor.ImportResult, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, res)
	}
	action := "updated"
	switch {
	case res.Unchanged:
		action = "unchanged"
	case res.Created:
		action = "created"
	}
	fmt.Fprintf(w, "%s %s (revision %d)", action, res.Record.Binder.ID, res.Record.Revision)
	if res.Upgraded {
		fmt.Fprintf(w, ", upgraded to %s", res.Record.Binder.BindersVersion)
	}
	fmt.Fprintln(w)
	return nil
}

// WriteStatus writes service counts.
func WriteStatus(w io.Writer, st *editor.Status, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, st)
	}
	fmt.Fprintf(w, "Binders:         %d\n", st.Binders)
	fmt.Fprintf(w, "Log entries:     %d\n", st.LogEntries)
	fmt.Fprintf(w, "Indexed binders: %d\n", st.IndexedBinders)
	fmt.Fprintf(w, "Disk usage:      %s\n", FormatBytes(st.DiskUsageBytes))
	return nil
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
