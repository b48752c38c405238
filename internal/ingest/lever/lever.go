// Package lever ingests postings from the Lever postings JSON API.
package lever

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/ingest"
	"jobfeed-engine/internal/normalize"
)

const defaultAPIBase = "https://api.lever.co"

var ErrNoSlug = errors.New("lever: no board slug in careers url")

type Connector struct {
	apiBase string
	hc      *http.Client
	limiter *ingest.HostLimiter
}

type Option func(*Connector)

func WithAPIBase(base string) Option {
	return func(c *Connector) { c.apiBase = strings.TrimRight(base, "/") }
}

func New(limiter *ingest.HostLimiter, opts ...Option) *Connector {
	c := &Connector{
		apiBase: defaultAPIBase,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Connector) Platform() domain.PlatformTag { return domain.PlatformLever }

type posting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
	} `json:"categories"`
}

func (c *Connector) FetchJobs(ctx context.Context, co domain.Company) (ingest.Result, error) {
	slug := ExtractSlug(co.CareersURL)
	if slug == "" {
		return ingest.Result{}, fmt.Errorf("%w: %q", ErrNoSlug, co.CareersURL)
	}

	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", c.apiBase, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return ingest.Result{}, err
	}
	req.Header.Set("User-Agent", "jobfeed-engine/1.0 (+local)")

	if err := c.limiter.WaitURL(ctx, apiURL); err != nil {
		return ingest.Result{}, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return ingest.Result{}, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return ingest.Result{}, fmt.Errorf("lever board %q status %d", slug, res.StatusCode)
	}

	var postings []posting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return ingest.Result{}, fmt.Errorf("lever decode: %w", err)
	}

	out := ingest.Result{Fetched: len(postings)}
	for _, p := range postings {
		var postedAt *time.Time
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt).UTC()
			postedAt = &t
		}

		raw := normalize.Raw{
			Source:    string(domain.PlatformLever),
			PostingID: p.ID,
			Title:     p.Text,
			ApplyURL:  p.HostedURL,
			SourceURL: co.CareersURL,
			Locations: normalize.SplitLocations(p.Categories.Location),
			PostedAt:  postedAt,
			Payload:   p,
		}

		job, err := normalize.Job(raw, co)
		if err != nil {
			log.Printf("[ats:lever] slug=%s dropped record: %v", slug, err)
			out.Dropped++
			continue
		}
		out.Jobs = append(out.Jobs, job)
	}

	return out, nil
}

// ExtractSlug pulls the board slug from jobs.lever.co/<slug> URLs.
func ExtractSlug(careersURL string) string {
	u, err := url.Parse(strings.TrimSpace(careersURL))
	if err != nil || !strings.Contains(strings.ToLower(u.Host), "lever.co") {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return ""
	}
	return segs[0]
}
