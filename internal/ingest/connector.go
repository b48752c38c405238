// Package ingest defines the connector contract and the tag-keyed dispatch
// table the orchestrator selects connectors through.
package ingest

import (
	"context"

	"jobfeed-engine/internal/domain"
)

// Result is what one connector run yields for one company. Fetched counts
// raw records seen at the source; Dropped counts records rejected by
// normalization, so len(Jobs) == Fetched - Dropped.
type Result struct {
	Jobs    []domain.NormalizedJob
	Fetched int
	Dropped int
}

// Connector turns a company's careers URL into normalized jobs. A failed
// run returns an error; the orchestrator records it and moves on, so one
// bad company never blocks the batch.
type Connector interface {
	Platform() domain.PlatformTag
	FetchJobs(ctx context.Context, co domain.Company) (Result, error)
}

// Registry maps platform tags to connector implementations. Adding a
// platform is a one-place change here.
type Registry struct {
	byTag map[domain.PlatformTag]Connector
}

func NewRegistry(connectors ...Connector) *Registry {
	r := &Registry{byTag: make(map[domain.PlatformTag]Connector, len(connectors))}
	for _, c := range connectors {
		r.byTag[c.Platform()] = c
	}
	return r
}

func (r *Registry) For(tag domain.PlatformTag) (Connector, bool) {
	c, ok := r.byTag[tag]
	return c, ok
}

func (r *Registry) Tags() []domain.PlatformTag {
	out := make([]domain.PlatformTag, 0, len(r.byTag))
	for tag := range r.byTag {
		out = append(out, tag)
	}
	return out
}
