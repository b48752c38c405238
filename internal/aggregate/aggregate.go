// Package aggregate fans the connector pipeline out across every
// configured company and merges the results. Each company runs inside its
// own isolation boundary: a failing connector is recorded in the report
// and excluded from the merge, never allowed to abort the batch.
package aggregate

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/ingest"
	"jobfeed-engine/internal/registry"
)

// CompanyResult records how one company's pass went. Err empty and Skipped
// false means the pass succeeded, even with zero jobs.
type CompanyResult struct {
	CompanyID   string             `json:"company_id"`
	CompanyName string             `json:"company_name"`
	Platform    domain.PlatformTag `json:"platform"`
	Fetched     int                `json:"fetched"`
	Dropped     int                `json:"dropped"`
	Skipped     bool               `json:"skipped,omitempty"`
	Err         string             `json:"error,omitempty"`
}

// CompanyError is the typed per-company failure entry surfaced to callers.
type CompanyError struct {
	CompanyID   string             `json:"company_id"`
	CompanyName string             `json:"company_name"`
	Platform    domain.PlatformTag `json:"platform"`
	Reason      string             `json:"reason"`
}

// Report is the outcome of one aggregation run.
type Report struct {
	RunID     string          `json:"run_id"`
	Jobs      []domain.NormalizedJob `json:"-"`
	Companies []CompanyResult `json:"companies"`
	Errors    []CompanyError  `json:"errors"`
	Skipped   int             `json:"skipped"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// Succeeded reports whether the pass for companyID completed without error
// and without being skipped; only then may its unseen jobs be deactivated.
func (r Report) Succeeded(companyID string) bool {
	for _, cr := range r.Companies {
		if cr.CompanyID == companyID {
			return !cr.Skipped && cr.Err == ""
		}
	}
	return false
}

type Config struct {
	Concurrency       int
	PerCompanyTimeout time.Duration
	BatchTimeout      time.Duration
}

func (c *Config) defaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.PerCompanyTimeout <= 0 {
		c.PerCompanyTimeout = 2 * time.Minute
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 10 * time.Minute
	}
}

type Orchestrator struct {
	cfg        Config
	connectors *ingest.Registry
	avail      *registry.Registry
}

func New(cfg Config, connectors *ingest.Registry, avail *registry.Registry) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{cfg: cfg, connectors: connectors, avail: avail}
}

// Aggregate runs every available company's connector concurrently, bounded
// by the configured worker limit, and merges the per-company successes.
// Output order is stable within one run: sorted by company, then title.
func (o *Orchestrator) Aggregate(ctx context.Context, companies []domain.Company) Report {
	started := time.Now().UTC()
	rep := Report{RunID: uuid.NewString(), StartedAt: started}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.BatchTimeout)
	defer cancel()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for _, co := range companies {
		co := co
		g.Go(func() error {
			cr := o.runCompany(ctx, co)

			mu.Lock()
			defer mu.Unlock()
			rep.Companies = append(rep.Companies, cr.result)
			if cr.result.Skipped {
				rep.Skipped++
			}
			if cr.result.Err != "" {
				rep.Errors = append(rep.Errors, CompanyError{
					CompanyID:   co.ID,
					CompanyName: co.Name,
					Platform:    cr.result.Platform,
					Reason:      cr.result.Err,
				})
			}
			rep.Jobs = append(rep.Jobs, cr.jobs...)
			return nil // best effort: never cancel siblings
		})
	}
	_ = g.Wait()

	sort.Slice(rep.Jobs, func(i, j int) bool {
		a, b := rep.Jobs[i], rep.Jobs[j]
		if a.CompanyName != b.CompanyName {
			return a.CompanyName < b.CompanyName
		}
		return a.Title < b.Title
	})
	sort.Slice(rep.Companies, func(i, j int) bool {
		return rep.Companies[i].CompanyID < rep.Companies[j].CompanyID
	})

	rep.Duration = time.Since(started)
	log.Printf("[aggregate] run=%s companies=%d jobs=%d errors=%d skipped=%d dur=%s",
		rep.RunID, len(companies), len(rep.Jobs), len(rep.Errors), rep.Skipped, rep.Duration.Round(time.Millisecond))
	return rep
}

type companyOutcome struct {
	result CompanyResult
	jobs   []domain.NormalizedJob
}

func (o *Orchestrator) runCompany(ctx context.Context, co domain.Company) companyOutcome {
	st := o.avail.Status(co)
	cr := CompanyResult{CompanyID: co.ID, CompanyName: co.Name, Platform: st.Platform}

	if !st.Available {
		cr.Skipped = true
		log.Printf("[aggregate] company=%q skipped: %s", co.Name, st.Message)
		return companyOutcome{result: cr}
	}

	conn, ok := o.connectors.For(st.Platform)
	if !ok {
		// registry said available but nothing is registered for the tag
		cr.Err = "no connector registered for platform " + string(st.Platform)
		return companyOutcome{result: cr}
	}

	cctx, cancel := context.WithTimeout(ctx, o.cfg.PerCompanyTimeout)
	defer cancel()

	res, err := conn.FetchJobs(cctx, co)
	if err != nil {
		cr.Err = err.Error()
		log.Printf("[aggregate] company=%q platform=%s err=%v", co.Name, st.Platform, err)
		return companyOutcome{result: cr}
	}

	cr.Fetched = res.Fetched
	cr.Dropped = res.Dropped
	return companyOutcome{result: cr, jobs: res.Jobs}
}
