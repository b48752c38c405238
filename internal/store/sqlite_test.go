package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfeed-engine/internal/domain"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	posted := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	in := job("j-1", "acme", "Go Engineer")
	in.ApplyURL = "https://boards.greenhouse.io/acme/jobs/1"
	in.PostedAt = &posted
	in.Description = "Build pipelines."

	stats, err := s.Upsert(ctx, []domain.NormalizedJob{in})
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 1}, stats)

	got, err := s.ListJobs(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	rec := got[0]
	assert.Equal(t, in.CanonicalID, rec.CanonicalID)
	assert.Equal(t, in.Title, rec.Title)
	assert.Equal(t, in.ApplyURL, rec.ApplyURL)
	assert.Equal(t, in.Locations, rec.Locations)
	assert.Equal(t, in.Countries, rec.Countries)
	assert.Equal(t, "DK", rec.PrimaryCountry)
	require.NotNil(t, rec.PostedAt)
	assert.True(t, rec.PostedAt.Equal(posted))
	assert.Nil(t, rec.UpdatedAt)
	assert.True(t, rec.IsActive)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSQLiteUpsertLifecycle(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	batch := []domain.NormalizedJob{
		job("j-1", "acme", "Go Engineer"),
		job("j-2", "acme", "SRE"),
	}

	stats, err := s.Upsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 2}, stats)

	// identical re-run
	stats, err = s.Upsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, Stats{Unchanged: 2}, stats)

	// title drift on one record
	batch[0].Title = "Senior Go Engineer"
	stats, err = s.Upsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1, Unchanged: 1}, stats)
}

func TestSQLiteMarkMissingInactive(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []domain.NormalizedJob{
		job("j-a", "acme", "A"),
		job("j-b", "acme", "B"),
		job("j-x", "globex", "X"),
	})
	require.NoError(t, err)

	n, err := s.MarkMissingInactive(ctx, "acme", []string{"j-a"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := s.ListJobs(ctx, ListOpts{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "j-a", active[0].CanonicalID)
	assert.Equal(t, "j-x", active[1].CanonicalID)

	// empty pass deactivates the remainder of the company
	n, err = s.MarkMissingInactive(ctx, "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// re-observation flips the record active again
	stats, err := s.Upsert(ctx, []domain.NormalizedJob{job("j-b", "acme", "B")})
	require.NoError(t, err)
	assert.Equal(t, Stats{Unchanged: 1}, stats)

	active, err = s.ListJobs(ctx, ListOpts{CompanyID: "acme", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "j-b", active[0].CanonicalID)
}

func TestSQLiteCountryFilter(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	se := job("j-s", "globex", "Platform Engineer")
	se.Locations = []string{"Stockholm, Sweden"}
	se.Countries = []string{"SE"}
	se.PrimaryCountry = "SE"

	_, err := s.Upsert(ctx, []domain.NormalizedJob{job("j-1", "acme", "Go Engineer"), se})
	require.NoError(t, err)

	dk, err := s.ListJobs(ctx, ListOpts{Country: "DK"})
	require.NoError(t, err)
	require.Len(t, dk, 1)
	assert.Equal(t, "j-1", dk[0].CanonicalID)
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = s.Upsert(context.Background(), []domain.NormalizedJob{job("j-1", "acme", "A")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// reopen: schema survives, data survives
	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ListJobs(context.Background(), ListOpts{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
