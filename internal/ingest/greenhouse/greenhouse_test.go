package greenhouse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/ingest"
	"jobfeed-engine/internal/ingest/greenhouse"
)

func TestExtractBoardID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://boards.greenhouse.io/acme", "acme"},
		{"https://boards.greenhouse.io/acme/jobs/123", "acme"},
		{"https://job-boards.greenhouse.io/acme", "acme"},
		{"https://boards.greenhouse.io/embed/job_board?for=acme", "acme"},
		{"https://www.acme.com/careers", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, greenhouse.ExtractBoardID(tc.url), "url=%s", tc.url)
	}
}

const boardJSON = `{"jobs":[
  {"id":4012345,"title":"Backend Engineer","absolute_url":"https://boards.greenhouse.io/acme/jobs/4012345","updated_at":"2026-08-01T10:00:00Z","location":{"name":"Copenhagen"}},
  {"id":4012346,"title":"Site Reliability Engineer","absolute_url":"","location":{"name":"London, UK"}},
  {"id":4012347,"title":"","location":{"name":"Berlin"}}
]}`

func newTestConnector(t *testing.T, handler http.HandlerFunc) *greenhouse.Connector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return greenhouse.New(ingest.NewHostLimiter(100, 10), greenhouse.WithAPIBase(srv.URL))
}

func TestFetchJobsScenario(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/boards/acme/jobs", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("content"))
		_, _ = w.Write([]byte(boardJSON))
	})

	co := domain.Company{ID: "acme", Name: "Acme", CareersURL: "https://boards.greenhouse.io/acme"}
	res, err := c.FetchJobs(context.Background(), co)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 1, res.Dropped) // untitled record
	require.Len(t, res.Jobs, 2)

	first, second := res.Jobs[0], res.Jobs[1]
	assert.Equal(t, "greenhouse", first.Source)
	assert.Equal(t, "DK", first.PrimaryCountry)
	assert.Equal(t, "GB", second.PrimaryCountry)
	assert.NotEmpty(t, first.CanonicalID)
	assert.NotEmpty(t, second.CanonicalID)
	assert.NotEqual(t, first.CanonicalID, second.CanonicalID)

	// absolute_url missing falls back to the embed token form
	assert.Equal(t, "https://boards.greenhouse.io/embed/job_app?for=acme&token=4012346", second.ApplyURL)
}

func TestFetchJobsNon2xxIsAnError(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	co := domain.Company{ID: "acme", Name: "Acme", CareersURL: "https://boards.greenhouse.io/acme"}
	res, err := c.FetchJobs(context.Background(), co)
	require.Error(t, err)
	assert.Empty(t, res.Jobs)
}

func TestFetchJobsMissingBoardID(t *testing.T) {
	c := greenhouse.New(nil)
	co := domain.Company{ID: "acme", Name: "Acme", CareersURL: "https://careers.acme.com"}
	_, err := c.FetchJobs(context.Background(), co)
	assert.ErrorIs(t, err, greenhouse.ErrNoBoardID)
}
