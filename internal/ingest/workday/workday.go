// Package workday ingests Workday career sites through an out-of-process
// browser-automation actor. Workday tenants sit behind Cloudflare and block
// plain HTTP scraping, so the connector submits a run to the automation
// runner, polls it to a terminal state under an overall deadline, then
// pulls the run's dataset. A failed run is a reported per-company failure,
// never a silent empty result: runs cost money.
package workday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/ingest"
	"jobfeed-engine/internal/normalize"
)

// RunStatus values reported by the automation runner.
type RunStatus string

const (
	RunReady     RunStatus = "READY"
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
	RunAborted   RunStatus = "ABORTED"
	RunTimedOut  RunStatus = "TIMED-OUT"
)

func (s RunStatus) Terminal() bool {
	switch s {
	case RunSucceeded, RunFailed, RunAborted, RunTimedOut:
		return true
	}
	return false
}

var (
	ErrRunTimeout = errors.New("workday: automation run exceeded deadline")
	ErrRunFailed  = errors.New("workday: automation run did not succeed")
)

type Config struct {
	BaseURL      string        // automation runner API base
	ActorID      string        // actor to run per company
	Token        string        // API token (keyring or env)
	PollInterval time.Duration // fixed status-poll interval
	Timeout      time.Duration // overall deadline per run
	MaxItems     int           // item cap passed to the actor
}

func (c *Config) defaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.MaxItems <= 0 {
		c.MaxItems = 500
	}
}

type Connector struct {
	cfg     Config
	hc      *http.Client
	limiter *ingest.HostLimiter
}

func New(cfg Config, limiter *ingest.HostLimiter) *Connector {
	cfg.defaults()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Connector{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
	}
}

func (c *Connector) Platform() domain.PlatformTag { return domain.PlatformWorkday }

type runEnvelope struct {
	Data runData `json:"data"`
}

type runData struct {
	ID               string    `json:"id"`
	Status           RunStatus `json:"status"`
	DefaultDatasetID string    `json:"defaultDatasetId"`
}

type datasetItem struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	URL              string   `json:"url"`
	Location         string   `json:"location"`
	Locations        []string `json:"locations"`
	PostedOn         string   `json:"postedOn"`
	JobRequisitionID string   `json:"jobRequisitionId"`
	Description      string   `json:"description"`
}

func (c *Connector) FetchJobs(ctx context.Context, co domain.Company) (ingest.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	run, err := c.submitRun(ctx, co.CareersURL)
	if err != nil {
		return ingest.Result{}, err
	}
	log.Printf("[ats:workday] company=%q run=%s submitted", co.Name, run.ID)

	run, err = c.awaitRun(ctx, run)
	if err != nil {
		return ingest.Result{}, err
	}
	if run.Status != RunSucceeded {
		return ingest.Result{}, fmt.Errorf("%w: terminal status %s (run %s)", ErrRunFailed, run.Status, run.ID)
	}

	items, err := c.fetchDataset(ctx, run.DefaultDatasetID)
	if err != nil {
		return ingest.Result{}, err
	}

	out := ingest.Result{Fetched: len(items)}
	for _, it := range items {
		locations := it.Locations
		if len(locations) == 0 {
			locations = normalize.SplitLocations(it.Location)
		}

		var postedAt *time.Time
		if t, err := time.Parse(time.RFC3339, it.PostedOn); err == nil {
			postedAt = &t
		} else if t, err := time.Parse("2006-01-02", it.PostedOn); err == nil {
			postedAt = &t
		}

		raw := normalize.Raw{
			Source:        string(domain.PlatformWorkday),
			PostingID:     it.ID,
			RequisitionID: it.JobRequisitionID,
			Title:         it.Title,
			ApplyURL:      it.URL,
			SourceURL:     co.CareersURL,
			Locations:     locations,
			PostedAt:      postedAt,
			Description:   it.Description,
			Payload:       it,
		}

		job, err := normalize.Job(raw, co)
		if err != nil {
			log.Printf("[ats:workday] run=%s dropped record: %v", run.ID, err)
			out.Dropped++
			continue
		}
		out.Jobs = append(out.Jobs, job)
	}

	return out, nil
}

func (c *Connector) submitRun(ctx context.Context, targetURL string) (runData, error) {
	body, _ := json.Marshal(map[string]any{
		"startUrls": []map[string]string{{"url": targetURL}},
		"maxItems":  c.cfg.MaxItems,
	})
	u := fmt.Sprintf("%s/v2/acts/%s/runs?token=%s", c.cfg.BaseURL, c.cfg.ActorID, c.cfg.Token)

	var env runEnvelope
	if err := c.doJSON(ctx, http.MethodPost, u, body, &env); err != nil {
		return runData{}, fmt.Errorf("workday submit run: %w", err)
	}
	if env.Data.ID == "" {
		return runData{}, errors.New("workday submit run: empty run id")
	}
	return env.Data, nil
}

// awaitRun polls at a fixed interval until the run reaches a terminal
// state. The context carries the overall deadline; exceeding it surfaces
// as ErrRunTimeout rather than an open-ended wait.
func (c *Connector) awaitRun(ctx context.Context, run runData) (runData, error) {
	for {
		if run.Status.Terminal() {
			return run, nil
		}
		select {
		case <-ctx.Done():
			return run, fmt.Errorf("%w: run %s still %s", ErrRunTimeout, run.ID, run.Status)
		case <-time.After(c.cfg.PollInterval):
		}

		u := fmt.Sprintf("%s/v2/actor-runs/%s?token=%s", c.cfg.BaseURL, run.ID, c.cfg.Token)
		var env runEnvelope
		if err := c.doJSON(ctx, http.MethodGet, u, nil, &env); err != nil {
			if ctx.Err() != nil {
				return run, fmt.Errorf("%w: run %s still %s", ErrRunTimeout, run.ID, run.Status)
			}
			return run, fmt.Errorf("workday poll run: %w", err)
		}
		run = env.Data
	}
}

func (c *Connector) fetchDataset(ctx context.Context, datasetID string) ([]datasetItem, error) {
	if datasetID == "" {
		return nil, errors.New("workday: run has no dataset")
	}
	u := fmt.Sprintf("%s/v2/datasets/%s/items?token=%s", c.cfg.BaseURL, datasetID, c.cfg.Token)

	var items []datasetItem
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &items); err != nil {
		return nil, fmt.Errorf("workday fetch dataset: %w", err)
	}
	return items, nil
}

func (c *Connector) doJSON(ctx context.Context, method, u string, body []byte, out any) error {
	var rd *bytes.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.limiter.WaitURL(ctx, u); err != nil {
		return err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
