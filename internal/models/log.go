package models

import "time"

// LogEntry records one applied change. Entries are appended, never edited.
type LogEntry struct {
	ID           string    `json:"id"`
	Version      uint64    `json:"version"`
	Kind         string    `json:"kind"`
	ChunkIndices []int     `json:"chunkIndices,omitempty"`
	ModuleKey    string    `json:"moduleKey,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
}

func (e LogEntry) clone() LogEntry {
	if e.ChunkIndices != nil {
		e.ChunkIndices = append([]int(nil), e.ChunkIndices...)
	}
	return e
}

// CurrentLog returns a copy of the binder log.
func (b *Binder) CurrentLog() []LogEntry {
	out := make([]LogEntry, len(b.Log))
	for i, e := range b.Log {
		out[i] = e.clone()
	}
	return out
}

// LastLogVersion returns the highest version in the log, 0 when the log is empty.
func (b *Binder) LastLogVersion() uint64 {
	var max uint64
	for _, e := range b.Log {
		if e.Version > max {
			max = e.Version
		}
	}
	return max
}
