package domain

import "time"

// SearchRecord is the persisted per-term search counter. At most one record
// exists per distinct SearchTerm; the store enforces this with a unique
// constraint so concurrent recordings of the same term collapse to one row.
type SearchRecord struct {
	ID         string
	SearchTerm string
	Count      int64
	MovieID    int64
	PosterURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
