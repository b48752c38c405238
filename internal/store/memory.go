package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"jobfeed-engine/internal/domain"
)

// Memory is the reference in-memory store: a canonical-id-keyed map behind
// one RWMutex. Good enough for a single process; the sqlite store is the
// durable swap.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]*domain.JobRecord
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]*domain.JobRecord), now: time.Now}
}

func (m *Memory) Upsert(ctx context.Context, jobs []domain.NormalizedJob) (Stats, error) {
	var stats Stats
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, in := range jobs {
		if in.CanonicalID == "" {
			stats.Failed++
			continue
		}
		old, ok := m.jobs[in.CanonicalID]
		if !ok {
			m.jobs[in.CanonicalID] = &domain.JobRecord{
				NormalizedJob: in,
				CreatedAt:     now,
				LastSeenAt:    now,
				IsActive:      true,
			}
			stats.Inserted++
			continue
		}

		if changed(*old, in) {
			old.NormalizedJob = in
			stats.Updated++
		} else {
			stats.Unchanged++
		}
		old.LastSeenAt = now
		old.IsActive = true
	}
	return stats, nil
}

func (m *Memory) MarkMissingInactive(ctx context.Context, companyID string, currentIDs []string) (int, error) {
	seen := make(map[string]bool, len(currentIDs))
	for _, id := range currentIDs {
		seen[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, rec := range m.jobs {
		if rec.CompanyID != companyID || !rec.IsActive || seen[id] {
			continue
		}
		rec.IsActive = false
		count++
	}
	return count, nil
}

func (m *Memory) ListJobs(ctx context.Context, opts ListOpts) ([]domain.JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.JobRecord
	for _, rec := range m.jobs {
		if opts.ActiveOnly && !rec.IsActive {
			continue
		}
		if opts.CompanyID != "" && rec.CompanyID != opts.CompanyID {
			continue
		}
		if opts.Country != "" && !hasCountry(rec.Countries, opts.Country) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompanyName != out[j].CompanyName {
			return out[i].CompanyName < out[j].CompanyName
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (m *Memory) Close() error { return nil }

func hasCountry(countries []string, want string) bool {
	for _, c := range countries {
		if c == want {
			return true
		}
	}
	return false
}
