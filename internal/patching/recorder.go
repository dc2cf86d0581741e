package patching

import "github.com/hyperjump/binders/internal/models"

// LogState is the state of a binder log.
type LogState int

const (
	// LogEmpty has no entries.
	LogEmpty LogState = iota
	// LogActive has at least one entry. There is no way back to LogEmpty.
	LogActive
)

func (s LogState) String() string {
	if s == LogActive {
		return "active"
	}
	return "empty"
}

// Recorder appends entries to a binder log with strictly increasing versions.
type Recorder struct {
	entries []models.LogEntry
	last    uint64
}

// NewRecorder starts a recorder over a copy of entries.
func NewRecorder(entries []models.LogEntry) *Recorder {
	r := &Recorder{entries: make([]models.LogEntry, 0, len(entries)+1)}
	for _, e := range entries {
		r.entries = append(r.entries, e)
		if e.Version > r.last {
			r.last = e.Version
		}
	}
	return r
}

// State reports whether the log has entries.
func (r *Recorder) State() LogState {
	if len(r.entries) == 0 {
		return LogEmpty
	}
	return LogActive
}

// LastVersion returns the highest recorded version.
func (r *Recorder) LastVersion() uint64 {
	return r.last
}

// Append records e and returns the stored entry. A version that is not above the
// current maximum is replaced by max+1; a missing id or timestamp is filled in.
func (r *Recorder) Append(e models.LogEntry) models.LogEntry {
	if e.Version <= r.last {
		e.Version = r.last + 1
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = now()
	}
	if e.ChunkIndices != nil {
		e.ChunkIndices = append([]int(nil), e.ChunkIndices...)
	}
	r.last = e.Version
	r.entries = append(r.entries, e)
	return e
}

// Len returns the number of entries.
func (r *Recorder) Len() int {
	return len(r.entries)
}

// Entries returns the log. The slice is owned by the caller.
func (r *Recorder) Entries() []models.LogEntry {
	if len(r.entries) == 0 {
		return nil
	}
	return append([]models.LogEntry(nil), r.entries...)
}
