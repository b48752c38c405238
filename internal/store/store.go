// Package store keeps the canonical-id-keyed job records and their
// lifecycle: insert on first sighting, refresh on re-observation, flip
// inactive once a completed pass no longer observes a job. Records are
// soft-deleted only.
//
// Two implementations share the Store interface: the in-memory reference
// store and a sqlite-backed durable store, so the backend can be swapped
// without touching callers.
package store

import (
	"context"

	"jobfeed-engine/internal/domain"
)

// Stats counts upsert outcomes for one batch.
type Stats struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

func (s *Stats) Add(o Stats) {
	s.Inserted += o.Inserted
	s.Updated += o.Updated
	s.Unchanged += o.Unchanged
	s.Failed += o.Failed
}

// ListOpts filters ListJobs. Zero values mean "no filter".
type ListOpts struct {
	CompanyID  string
	Country    string
	ActiveOnly bool
}

type Store interface {
	// Upsert inserts or refreshes each job by canonical id. A record is
	// "updated" only when a mutable field (title, apply URL, locations,
	// countries) actually drifted; otherwise only last_seen_at moves.
	Upsert(ctx context.Context, jobs []domain.NormalizedJob) (Stats, error)

	// MarkMissingInactive flips to inactive every active record of the
	// company whose id is absent from currentIDs, returning the count.
	// Run once per company after a full pass has been upserted, never
	// mid-crawl.
	MarkMissingInactive(ctx context.Context, companyID string, currentIDs []string) (int, error)

	ListJobs(ctx context.Context, opts ListOpts) ([]domain.JobRecord, error)

	Close() error
}

// changed reports field drift on the defined mutable set.
func changed(old domain.JobRecord, in domain.NormalizedJob) bool {
	if old.Title != in.Title || old.ApplyURL != in.ApplyURL {
		return true
	}
	if !equalStrings(old.Locations, in.Locations) {
		return true
	}
	return !equalStrings(old.Countries, in.Countries)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
