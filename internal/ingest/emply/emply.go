// Package emply ingests postings from Emply-hosted career portals. Emply
// has no public board API keyed by slug alone: the marketing page embeds a
// section id token that the positions API requires, so fetching is a
// two-step scrape-then-call.
package emply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/ingest"
	"jobfeed-engine/internal/normalize"
)

var (
	ErrNoSubdomain = errors.New("emply: cannot resolve portal subdomain")
	ErrNoSectionID = errors.New("emply: no section id on portal page")
)

var sectionIDRe = regexp.MustCompile(`(?i)sectionId["'=:\s]+([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)

type Connector struct {
	// scheme+host template for portal and API calls; %s is the subdomain.
	// Overridable for tests.
	portalBase string
	hc         *http.Client
	limiter    *ingest.HostLimiter
}

type Option func(*Connector)

// WithPortalBase replaces "https://%s.emply.com" (tests).
func WithPortalBase(tpl string) Option {
	return func(c *Connector) { c.portalBase = tpl }
}

func New(limiter *ingest.HostLimiter, opts ...Option) *Connector {
	c := &Connector{
		portalBase: "https://%s.emply.com",
		hc:         &http.Client{Timeout: 20 * time.Second},
		limiter:    limiter,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Connector) Platform() domain.PlatformTag { return domain.PlatformEmply }

type positionsResponse struct {
	Groups []positionGroup `json:"groups"`
}

type positionGroup struct {
	Title     string     `json:"title"`
	Positions []position `json:"positions"`
}

type position struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	AdvertisementURL string `json:"advertisementUrl"`
	Location         string `json:"location"`
	Created          string `json:"created"`
	Deadline         string `json:"deadline"`
}

func (c *Connector) FetchJobs(ctx context.Context, co domain.Company) (ingest.Result, error) {
	sub := Subdomain(co.CareersURL)
	if sub == "" {
		return ingest.Result{}, fmt.Errorf("%w: %q", ErrNoSubdomain, co.CareersURL)
	}
	base := fmt.Sprintf(c.portalBase, sub)

	sectionID, err := c.scrapeSectionID(ctx, base)
	if err != nil {
		return ingest.Result{}, err
	}

	apiURL := base + "/api/positions?sectionId=" + url.QueryEscape(sectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return ingest.Result{}, err
	}
	req.Header.Set("User-Agent", "jobfeed-engine/1.0 (+local)")
	req.Header.Set("Accept", "application/json")

	if err := c.limiter.WaitURL(ctx, apiURL); err != nil {
		return ingest.Result{}, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return ingest.Result{}, fmt.Errorf("emply get positions: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return ingest.Result{}, fmt.Errorf("emply positions status %d", res.StatusCode)
	}

	var pr positionsResponse
	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil {
		return ingest.Result{}, fmt.Errorf("emply decode: %w", err)
	}

	var out ingest.Result
	for _, group := range pr.Groups {
		for _, p := range group.Positions {
			out.Fetched++

			var postedAt *time.Time
			if t, err := time.Parse(time.RFC3339, p.Created); err == nil {
				postedAt = &t
			}

			locations := normalize.SplitLocations(p.Location)
			if len(locations) == 0 && group.Title != "" {
				// some portals group positions by office instead of
				// setting a per-position location
				locations = normalize.SplitLocations(group.Title)
			}

			raw := normalize.Raw{
				Source:    string(domain.PlatformEmply),
				PostingID: p.ID,
				Title:     p.Title,
				ApplyURL:  p.AdvertisementURL,
				SourceURL: co.CareersURL,
				Locations: locations,
				PostedAt:  postedAt,
				Payload:   p,
			}

			job, err := normalize.Job(raw, co)
			if err != nil {
				log.Printf("[ats:emply] sub=%s dropped record: %v", sub, err)
				out.Dropped++
				continue
			}
			out.Jobs = append(out.Jobs, job)
		}
	}

	return out, nil
}

func (c *Connector) scrapeSectionID(ctx context.Context, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "jobfeed-engine/1.0 (+local)")

	if err := c.limiter.WaitURL(ctx, base); err != nil {
		return "", err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("emply get portal: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("emply portal status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", fmt.Errorf("emply parse portal: %w", err)
	}

	if id, ok := doc.Find("[data-section-id]").First().Attr("data-section-id"); ok && id != "" {
		return id, nil
	}

	// the token also appears inline in the portal bootstrap script
	html, _ := doc.Html()
	if m := sectionIDRe.FindStringSubmatch(html); m != nil {
		return m[1], nil
	}

	return "", ErrNoSectionID
}

// Subdomain resolves the per-company portal subdomain: the explicit label
// for *.emply.com hosts, otherwise the company's own domain label
// (career.acme.com -> acme).
func Subdomain(careersURL string) string {
	u, err := url.Parse(strings.TrimSpace(careersURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	labels := strings.Split(host, ".")

	if strings.HasSuffix(host, ".emply.com") && len(labels) >= 3 {
		return labels[0]
	}
	if len(labels) >= 2 {
		// registrable-domain label: career.acme.com and www.acme.dk both
		// resolve to "acme"
		return labels[len(labels)-2]
	}
	return ""
}
