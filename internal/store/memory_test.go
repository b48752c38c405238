package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfeed-engine/internal/domain"
)

func job(id, company, title string) domain.NormalizedJob {
	return domain.NormalizedJob{
		CanonicalID:    id,
		Source:         "greenhouse",
		ExternalID:     id,
		CompanyID:      company,
		CompanyName:    company,
		Title:          title,
		Locations:      []string{"Copenhagen, Denmark"},
		Countries:      []string{"DK"},
		PrimaryCountry: "DK",
	}
}

func TestUpsertDuplicateInOnePass(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// the same posting observed twice in a single pass stays one record
	stats, err := m.Upsert(ctx, []domain.NormalizedJob{
		job("j-1", "acme", "Go Engineer"),
		job("j-1", "acme", "Go Engineer"),
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 1, Unchanged: 1}, stats)

	got, err := m.ListJobs(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsActive)
}

func TestUpsertReRunIsAllUnchanged(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	batch := []domain.NormalizedJob{
		job("j-1", "acme", "Go Engineer"),
		job("j-2", "acme", "SRE"),
	}

	_, err := m.Upsert(ctx, batch)
	require.NoError(t, err)

	stats, err := m.Upsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, Stats{Unchanged: 2}, stats)
}

func TestUpsertDetectsFieldDrift(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Upsert(ctx, []domain.NormalizedJob{job("j-1", "acme", "Go Engineer")})
	require.NoError(t, err)

	drifted := job("j-1", "acme", "Senior Go Engineer")
	stats, err := m.Upsert(ctx, []domain.NormalizedJob{drifted})
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, stats)

	got, _ := m.ListJobs(ctx, ListOpts{})
	require.Len(t, got, 1)
	assert.Equal(t, "Senior Go Engineer", got[0].Title)
}

func TestUpsertRejectsMissingCanonicalID(t *testing.T) {
	m := NewMemory()

	stats, err := m.Upsert(context.Background(), []domain.NormalizedJob{{Title: "orphan"}})
	require.NoError(t, err)
	assert.Equal(t, Stats{Failed: 1}, stats)
}

func TestMarkMissingInactive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Upsert(ctx, []domain.NormalizedJob{
		job("j-a", "acme", "A"),
		job("j-b", "acme", "B"),
		job("j-x", "globex", "X"),
	})
	require.NoError(t, err)

	// a pass that only saw j-a: B goes inactive, A stays, globex untouched
	n, err := m.MarkMissingInactive(ctx, "acme", []string{"j-a"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, _ := m.ListJobs(ctx, ListOpts{ActiveOnly: true})
	require.Len(t, active, 2)
	assert.Equal(t, "j-a", active[0].CanonicalID)
	assert.Equal(t, "j-x", active[1].CanonicalID)

	all, _ := m.ListJobs(ctx, ListOpts{CompanyID: "acme"})
	assert.Len(t, all, 2, "inactive records are kept, not deleted")

	// repeating the same pass is a no-op
	n, err = m.MarkMissingInactive(ctx, "acme", []string{"j-a"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMarkMissingInactiveEmptyPassDeactivatesAll(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Upsert(ctx, []domain.NormalizedJob{job("j-a", "acme", "A"), job("j-b", "acme", "B")})
	require.NoError(t, err)

	n, err := m.MarkMissingInactive(ctx, "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	active, _ := m.ListJobs(ctx, ListOpts{CompanyID: "acme", ActiveOnly: true})
	assert.Empty(t, active)
}

func TestUpsertReactivates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Upsert(ctx, []domain.NormalizedJob{job("j-a", "acme", "A")})
	require.NoError(t, err)
	_, err = m.MarkMissingInactive(ctx, "acme", nil)
	require.NoError(t, err)

	stats, err := m.Upsert(ctx, []domain.NormalizedJob{job("j-a", "acme", "A")})
	require.NoError(t, err)
	assert.Equal(t, Stats{Unchanged: 1}, stats)

	active, _ := m.ListJobs(ctx, ListOpts{ActiveOnly: true})
	require.Len(t, active, 1)
	assert.True(t, active[0].IsActive)
}

func TestListJobsFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	se := job("j-s", "globex", "Platform Engineer")
	se.Countries = []string{"SE"}
	se.PrimaryCountry = "SE"

	_, err := m.Upsert(ctx, []domain.NormalizedJob{
		job("j-1", "acme", "Go Engineer"),
		job("j-2", "acme", "SRE"),
		se,
	})
	require.NoError(t, err)

	byCompany, _ := m.ListJobs(ctx, ListOpts{CompanyID: "globex"})
	require.Len(t, byCompany, 1)
	assert.Equal(t, "Platform Engineer", byCompany[0].Title)

	byCountry, _ := m.ListJobs(ctx, ListOpts{Country: "DK"})
	assert.Len(t, byCountry, 2)
}

func TestLastSeenAtAdvances(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	t0 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return t0 }

	_, err := m.Upsert(ctx, []domain.NormalizedJob{job("j-1", "acme", "A")})
	require.NoError(t, err)

	m.now = func() time.Time { return t0.Add(time.Hour) }
	_, err = m.Upsert(ctx, []domain.NormalizedJob{job("j-1", "acme", "A")})
	require.NoError(t, err)

	got, _ := m.ListJobs(ctx, ListOpts{})
	require.Len(t, got, 1)
	assert.Equal(t, t0, got[0].CreatedAt)
	assert.Equal(t, t0.Add(time.Hour), got[0].LastSeenAt)
}
