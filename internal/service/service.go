// Package service ties the pipeline together behind the two operations the
// API exposes: serve jobs (cache-first, aggregate on miss) and run a full
// ingestion pass into the store.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"jobfeed-engine/internal/aggregate"
	"jobfeed-engine/internal/cache"
	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/events"
	"jobfeed-engine/internal/registry"
	"jobfeed-engine/internal/store"
)

var (
	// ErrIngestRunning rejects overlapping ingestion passes.
	ErrIngestRunning = errors.New("an ingestion run is already in progress")

	// ErrNoJobs means a fresh aggregation failed and no snapshot exists to
	// fall back on.
	ErrNoJobs = errors.New("aggregation failed and no cached snapshot is available")
)

// CompanyProvider returns the current company roster. A func, not a slice,
// so config reloads take effect without rebuilding the engine.
type CompanyProvider func() []domain.Company

type Engine struct {
	orch      *aggregate.Orchestrator
	cache     *cache.Cache
	store     store.Store
	avail     *registry.Registry
	hub       *events.Hub
	companies CompanyProvider

	ingestMu sync.Mutex
}

func New(orch *aggregate.Orchestrator, c *cache.Cache, st store.Store, avail *registry.Registry, hub *events.Hub, companies CompanyProvider) *Engine {
	return &Engine{orch: orch, cache: c, store: st, avail: avail, hub: hub, companies: companies}
}

// Filters narrows the served job list. Zero values mean "no filter".
type Filters struct {
	CompanyID string
	Country   string
	Query     string
}

// JobsResult is a filtered snapshot plus its provenance. Cached reports
// that the snapshot predates this request; Stale additionally means it is
// older than the TTL and was served only because a refresh failed.
type JobsResult struct {
	Jobs       []domain.NormalizedJob `json:"jobs"`
	Total      int                    `json:"total"`
	Cached     bool                   `json:"cached"`
	CapturedAt time.Time              `json:"captured_at"`
	Stale      bool                   `json:"stale,omitempty"`
}

// Jobs serves the cached snapshot when it is younger than the TTL, or runs
// a fresh aggregation otherwise. force bypasses the freshness check. When
// a refresh fails outright, an expired snapshot is still served, marked
// stale; the error surfaces only when there is nothing at all to serve.
func (e *Engine) Jobs(ctx context.Context, f Filters, force bool) (JobsResult, error) {
	if !force && e.cache.Valid() {
		snap, _ := e.cache.Get()
		res := filtered(snap, false, f)
		res.Cached = true
		return res, nil
	}

	rep := e.orch.Aggregate(ctx, e.companies())
	if refreshFailed(rep) {
		if snap, ok := e.cache.Get(); ok {
			log.Printf("[service] refresh failed (%d errors); serving stale snapshot from %s",
				len(rep.Errors), snap.CapturedAt.Format(time.RFC3339))
			res := filtered(snap, true, f)
			res.Cached = true
			return res, nil
		}
		return JobsResult{}, ErrNoJobs
	}

	e.cache.Put(rep.Jobs)
	e.publish(events.TypeJobsRefreshed, map[string]any{"run_id": rep.RunID, "jobs": len(rep.Jobs)})

	snap, _ := e.cache.Get()
	return filtered(snap, false, f), nil
}

// refreshFailed is true when no company produced anything and at least one
// errored: an empty-but-clean run is a legitimate empty board, not a
// failure.
func refreshFailed(rep aggregate.Report) bool {
	return len(rep.Jobs) == 0 && len(rep.Errors) > 0
}

func filtered(snap cache.Snapshot, stale bool, f Filters) JobsResult {
	out := JobsResult{CapturedAt: snap.CapturedAt, Stale: stale}
	q := strings.ToLower(strings.TrimSpace(f.Query))

	for _, j := range snap.Jobs {
		if f.CompanyID != "" && j.CompanyID != f.CompanyID {
			continue
		}
		if f.Country != "" && !hasCountry(j.Countries, f.Country) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(j.Title), q) {
			continue
		}
		out.Jobs = append(out.Jobs, j)
	}
	out.Total = len(out.Jobs)
	return out
}

func hasCountry(countries []string, want string) bool {
	for _, c := range countries {
		if strings.EqualFold(c, want) {
			return true
		}
	}
	return false
}

// IngestReport is the outcome of one persistence pass.
type IngestReport struct {
	RunID        string                   `json:"run_id"`
	ItemsFetched int                      `json:"items_fetched"`
	Dropped      int                      `json:"dropped"`
	Inserted     int                      `json:"inserted"`
	Updated      int                      `json:"updated"`
	Unchanged    int                      `json:"unchanged"`
	Failed       int                      `json:"failed"`
	Deactivated  int                      `json:"deactivated"`
	PerCountry   map[string]int           `json:"per_country"`
	Companies    []aggregate.CompanyResult `json:"companies"`
	Errors       []aggregate.CompanyError `json:"errors"`
	Skipped      int                      `json:"skipped"`
	StartedAt    time.Time                `json:"started_at"`
	Duration     time.Duration            `json:"duration"`
}

// Ingest runs one full aggregation pass and persists it: upsert everything
// observed, then deactivate each company's unseen jobs. Deactivation only
// runs for companies whose pass succeeded, so a portal outage never wipes
// that company's listings. One run at a time.
func (e *Engine) Ingest(ctx context.Context) (IngestReport, error) {
	if !e.ingestMu.TryLock() {
		return IngestReport{}, ErrIngestRunning
	}
	defer e.ingestMu.Unlock()

	started := time.Now().UTC()
	companies := e.companies()
	e.publish(events.TypeIngestStarted, map[string]any{"companies": len(companies)})

	rep := e.orch.Aggregate(ctx, companies)

	out := IngestReport{
		RunID:      rep.RunID,
		PerCountry: map[string]int{},
		Companies:  rep.Companies,
		Errors:     rep.Errors,
		Skipped:    rep.Skipped,
		StartedAt:  started,
	}
	for _, cr := range rep.Companies {
		out.ItemsFetched += cr.Fetched
		out.Dropped += cr.Dropped
	}

	byCompany := map[string][]domain.NormalizedJob{}
	for _, j := range rep.Jobs {
		byCompany[j.CompanyID] = append(byCompany[j.CompanyID], j)
		out.PerCountry[j.PrimaryCountry]++
	}

	var stats store.Stats
	for _, co := range companies {
		if !rep.Succeeded(co.ID) {
			continue
		}
		jobs := byCompany[co.ID]

		s, err := e.store.Upsert(ctx, jobs)
		if err != nil {
			log.Printf("[service] upsert company=%q err=%v", co.Name, err)
			out.Errors = append(out.Errors, aggregate.CompanyError{
				CompanyID: co.ID, CompanyName: co.Name, Reason: "store: " + err.Error(),
			})
			continue
		}
		stats.Add(s)

		ids := make([]string, 0, len(jobs))
		for _, j := range jobs {
			ids = append(ids, j.CanonicalID)
		}
		n, err := e.store.MarkMissingInactive(ctx, co.ID, ids)
		if err != nil {
			log.Printf("[service] deactivate company=%q err=%v", co.Name, err)
			out.Errors = append(out.Errors, aggregate.CompanyError{
				CompanyID: co.ID, CompanyName: co.Name, Reason: "store: " + err.Error(),
			})
			continue
		}
		out.Deactivated += n
	}

	out.Inserted = stats.Inserted
	out.Updated = stats.Updated
	out.Unchanged = stats.Unchanged
	out.Failed = stats.Failed
	out.Duration = time.Since(started)

	// an ingest pass saw the freshest data there is; reuse it
	if !refreshFailed(rep) {
		e.cache.Put(rep.Jobs)
	}

	e.publish(events.TypeIngestFinished, out)
	log.Printf("[service] ingest run=%s fetched=%d inserted=%d updated=%d unchanged=%d deactivated=%d errors=%d dur=%s",
		out.RunID, out.ItemsFetched, out.Inserted, out.Updated, out.Unchanged, out.Deactivated, len(out.Errors),
		out.Duration.Round(time.Millisecond))
	return out, nil
}

// StoredJobs reads persisted records, bypassing the snapshot cache.
func (e *Engine) StoredJobs(ctx context.Context, opts store.ListOpts) ([]domain.JobRecord, error) {
	return e.store.ListJobs(ctx, opts)
}

// CompanyStatuses reports current availability for the whole roster.
func (e *Engine) CompanyStatuses() ([]domain.CompanyStatus, registry.Stats) {
	return e.avail.Statuses(e.companies())
}

func (e *Engine) CacheTTL() time.Duration { return e.cache.TTL() }

func (e *Engine) publish(typ string, data any) {
	if e.hub == nil {
		return
	}
	e.hub.Publish(events.MakeEvent("", typ, 1, data))
}
