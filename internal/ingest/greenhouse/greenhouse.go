// Package greenhouse fetches postings through the public Greenhouse boards
// API. content=false keeps payloads small; descriptions are not needed for
// the canonical schema.
package greenhouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/ingest"
	"jobfeed-engine/internal/normalize"
)

const defaultAPIBase = "https://boards-api.greenhouse.io"

var ErrNoBoardID = errors.New("greenhouse: no board id in careers url")

// Board ids show up as boards.greenhouse.io/<id>, job-boards.greenhouse.io/<id>
// or embed URLs with a for=<id> query.
var (
	boardPathRe  = regexp.MustCompile(`(?i)(?:job-)?boards(?:-eu)?\.greenhouse\.io/([A-Za-z0-9_-]+)`)
	boardQueryRe = regexp.MustCompile(`(?i)[?&]for=([A-Za-z0-9_-]+)`)
)

type Connector struct {
	apiBase string
	hc      *http.Client
	limiter *ingest.HostLimiter
}

type Option func(*Connector)

// WithAPIBase overrides the boards API base URL (tests).
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

func (c *Connector) Platform() domain.PlatformTag { return domain.PlatformGreenhouse }

type boardResponse struct {
	Jobs []boardJob `json:"jobs"`
}

type boardJob struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	AbsoluteURL   string `json:"absolute_url"`
	RequisitionID string `json:"requisition_id"`
	UpdatedAt     string `json:"updated_at"`
	Location      struct {
		Name string `json:"name"`
	} `json:"location"`
}

func (c *Connector) FetchJobs(ctx context.Context, co domain.Company) (ingest.Result, error) {
	board := ExtractBoardID(co.CareersURL)
	if board == "" {
		return ingest.Result{}, fmt.Errorf("%w: %q", ErrNoBoardID, co.CareersURL)
	}

	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=false", c.apiBase, board)

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
		return ingest.Result{}, fmt.Errorf("greenhouse get board: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return ingest.Result{}, fmt.Errorf("greenhouse board %q status %d", board, res.StatusCode)
	}

	var br boardResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return ingest.Result{}, fmt.Errorf("greenhouse decode: %w", err)
	}

	out := ingest.Result{Fetched: len(br.Jobs)}
	for _, bj := range br.Jobs {
		applyURL := strings.TrimSpace(bj.AbsoluteURL)
		if applyURL == "" {
			// boards without absolute_url still accept the embed token form
			applyURL = fmt.Sprintf("https://boards.greenhouse.io/embed/job_app?for=%s&token=%d", board, bj.ID)
		}

		var updatedAt *time.Time
		if t, err := time.Parse(time.RFC3339, bj.UpdatedAt); err == nil {
			updatedAt = &t
		}

		raw := normalize.Raw{
			Source:        string(domain.PlatformGreenhouse),
			PostingID:     strconv.FormatInt(bj.ID, 10),
			RequisitionID: bj.RequisitionID,
			Title:         bj.Title,
			ApplyURL:      applyURL,
			SourceURL:     co.CareersURL,
			Locations:     normalize.SplitLocations(bj.Location.Name),
			UpdatedAt:     updatedAt,
			Payload:       bj,
		}

		job, err := normalize.Job(raw, co)
		if err != nil {
			log.Printf("[ats:greenhouse] board=%s dropped record: %v", board, err)
			out.Dropped++
			continue
		}
		out.Jobs = append(out.Jobs, job)
	}

	return out, nil
}

// ExtractBoardID pulls the board slug out of any recognized Greenhouse URL
// shape; empty means the URL carries no board id.
func ExtractBoardID(careersURL string) string {
	if m := boardPathRe.FindStringSubmatch(careersURL); m != nil {
		slug := m[1]
		if strings.EqualFold(slug, "embed") {
			if q := boardQueryRe.FindStringSubmatch(careersURL); q != nil {
				return q[1]
			}
			return ""
		}
		return slug
	}
	if m := boardQueryRe.FindStringSubmatch(careersURL); m != nil && strings.Contains(strings.ToLower(careersURL), "greenhouse") {
		return m[1]
	}
	return ""
}
