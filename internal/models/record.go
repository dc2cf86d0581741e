package models

import "time"

// BinderRecord is a stored binder snapshot. Revision is the optimistic-concurrency
// counter maintained by storage; it is unrelated to log versions.
type BinderRecord struct {
	Binder    *Binder   `json:"binder"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BinderSummary is the listing shape of a stored binder.
type BinderSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	BindersVersion string    `json:"bindersVersion"`
	Chunks         int       `json:"chunks"`
	Revision       int64     `json:"revision"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Summary returns the listing shape of the record.
func (r *BinderRecord) Summary() BinderSummary {
	s := BinderSummary{Revision: r.Revision, UpdatedAt: r.UpdatedAt}
	if r.Binder != nil {
		s.ID = r.Binder.ID
		s.Title = r.Binder.Title()
		s.BindersVersion = r.Binder.BindersVersion
		s.Chunks = r.Binder.ChunkCount()
	}
	return s
}
