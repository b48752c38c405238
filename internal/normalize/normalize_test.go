package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/normalize"
)

var acme = domain.Company{ID: "acme", Name: "Acme", CareersURL: "https://boards.greenhouse.io/acme"}

func TestJobIdentityIsIdempotent(t *testing.T) {
	raw := normalize.Raw{
		Source:    "greenhouse",
		PostingID: "4012345",
		Title:     "Backend Engineer",
		ApplyURL:  "https://boards.greenhouse.io/acme/jobs/4012345",
		Locations: []string{"Copenhagen, Denmark"},
	}

	a, err := normalize.Job(raw, acme)
	require.NoError(t, err)
	b, err := normalize.Job(raw, acme)
	require.NoError(t, err)

	assert.NotEmpty(t, a.CanonicalID)
	assert.Equal(t, a.CanonicalID, b.CanonicalID)
}

func TestJobIdentityLadder(t *testing.T) {
	base := normalize.Raw{Source: "workday", Title: "Engineer", ApplyURL: "https://acme.wd3.myworkdayjobs.com/jobs/R-123/apply"}

	withPosting := base
	withPosting.PostingID = "p-1"
	withPosting.RequisitionID = "r-1"
	j, err := normalize.Job(withPosting, acme)
	require.NoError(t, err)
	assert.Equal(t, "p-1", j.ExternalID)

	withReq := base
	withReq.RequisitionID = "r-1"
	j, err = normalize.Job(withReq, acme)
	require.NoError(t, err)
	assert.Equal(t, "r-1", j.ExternalID)

	j, err = normalize.Job(base, acme)
	require.NoError(t, err)
	assert.Equal(t, "apply", j.ExternalID)
}

// A changed apply URL must not mint a new id when a posting id exists.
func TestJobApplyURLChangeKeepsIdentity(t *testing.T) {
	a := normalize.Raw{Source: "greenhouse", PostingID: "77", Title: "SRE", ApplyURL: "https://boards.greenhouse.io/acme/jobs/77"}
	b := a
	b.ApplyURL = "https://boards.greenhouse.io/embed/job_app?for=acme&token=77"

	ja, err := normalize.Job(a, acme)
	require.NoError(t, err)
	jb, err := normalize.Job(b, acme)
	require.NoError(t, err)
	assert.Equal(t, ja.CanonicalID, jb.CanonicalID)
}

func TestJobFallsBackToPayloadHash(t *testing.T) {
	raw := normalize.Raw{
		Source:  "generic",
		Title:   "Data Analyst",
		Payload: map[string]any{"title": "Data Analyst", "ref": 9},
	}
	j, err := normalize.Job(raw, acme)
	require.NoError(t, err)
	assert.NotEmpty(t, j.ExternalID)
	assert.NotEmpty(t, j.CanonicalID)

	again, err := normalize.Job(raw, acme)
	require.NoError(t, err)
	assert.Equal(t, j.CanonicalID, again.CanonicalID)
}

func TestJobCountryInference(t *testing.T) {
	raw := normalize.Raw{Source: "greenhouse", PostingID: "1", Title: "PM", Locations: []string{"London, UK"}}
	j, err := normalize.Job(raw, acme)
	require.NoError(t, err)
	assert.Equal(t, "GB", j.PrimaryCountry)
	assert.Equal(t, []string{"GB"}, j.Countries)
}

func TestJobDefaultCountryFallback(t *testing.T) {
	co := domain.Company{ID: "acme", Name: "Acme", Country: "DK"}
	raw := normalize.Raw{Source: "emply", PostingID: "1", Title: "PM", Locations: []string{"Remote"}}
	j, err := normalize.Job(raw, co)
	require.NoError(t, err)
	assert.Equal(t, "DK", j.PrimaryCountry)
}

func TestJobValidationDropsUntitledRecords(t *testing.T) {
	raw := normalize.Raw{Source: "greenhouse", PostingID: "1"}
	_, err := normalize.Job(raw, acme)
	assert.ErrorIs(t, err, normalize.ErrInvalidRecord)
}

func TestJobValidationRequiresSource(t *testing.T) {
	raw := normalize.Raw{PostingID: "1", Title: "PM"}
	_, err := normalize.Job(raw, acme)
	assert.ErrorIs(t, err, normalize.ErrInvalidRecord)
}
