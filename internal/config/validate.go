package config

import (
	"fmt"
	"net/url"
	"strings"

	"jobfeed-engine/internal/domain"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

var knownPlatforms = map[string]bool{
	"":                             true,
	string(domain.PlatformGreenhouse): true,
	string(domain.PlatformEmply):      true,
	string(domain.PlatformWorkday):    true,
	string(domain.PlatformLever):      true,
}

var knownStatuses = map[string]bool{
	"":                                true,
	string(domain.AvailabilityAvailable):       true,
	string(domain.AvailabilityBlocked):         true,
	string(domain.AvailabilityNeedsOnboarding): true,
}

// NormalizeAndValidate trims and defaults the config in a copy and
// reports everything wrong with it at once.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch strings.ToLower(strings.TrimSpace(out.Store.Backend)) {
	case "":
		out.Store.Backend = "sqlite"
	case "sqlite", "memory":
		out.Store.Backend = strings.ToLower(strings.TrimSpace(out.Store.Backend))
	default:
		res.addErr("store.backend must be sqlite or memory, got %q", out.Store.Backend)
	}

	if out.Cache.TTLSeconds < 0 {
		res.addErr("cache.ttl_seconds must be >= 0")
	}

	if out.Aggregation.Concurrency < 0 {
		res.addErr("aggregation.concurrency must be >= 0")
	} else if out.Aggregation.Concurrency > 32 {
		res.addWarn("aggregation.concurrency is very high (%d); portals may rate limit.", out.Aggregation.Concurrency)
	}
	if out.Aggregation.PerCompanySeconds < 0 {
		res.addErr("aggregation.per_company_seconds must be >= 0")
	}
	if out.Aggregation.BatchSeconds < 0 {
		res.addErr("aggregation.batch_seconds must be >= 0")
	}
	if out.Aggregation.RequestsPerHostPerSec < 0 {
		res.addErr("aggregation.requests_per_host_per_sec must be >= 0")
	}
	if out.Aggregation.ScheduleMinutes < 0 {
		res.addErr("aggregation.schedule_minutes must be >= 0 (0 disables the schedule)")
	}

	if out.Actor.PollSeconds < 0 {
		res.addErr("actor.poll_seconds must be >= 0")
	}
	if out.Actor.TimeoutSeconds < 0 {
		res.addErr("actor.timeout_seconds must be >= 0")
	}

	if len(out.Companies) == 0 {
		res.addWarn("companies list is empty; aggregation will produce nothing.")
	}

	seen := map[string]int{}
	for i := range out.Companies {
		e := &out.Companies[i]
		e.Name = strings.TrimSpace(e.Name)
		e.CareersURL = strings.TrimSpace(e.CareersURL)
		e.Country = strings.ToUpper(strings.TrimSpace(e.Country))
		e.Platform = strings.ToLower(strings.TrimSpace(e.Platform))
		e.Status = strings.ToLower(strings.TrimSpace(e.Status))

		if e.Name == "" {
			res.addErr("companies[%d].name is required", i)
			continue
		}
		if e.CareersURL == "" {
			res.addErr("companies[%d] (%s): careers_url is required", i, e.Name)
		} else if u, err := url.Parse(e.CareersURL); err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("companies[%d] (%s): careers_url %q is not an absolute URL", i, e.Name, e.CareersURL)
		}
		if e.Country != "" && len(e.Country) != 2 {
			res.addErr("companies[%d] (%s): country must be a 2-letter ISO code, got %q", i, e.Name, e.Country)
		}
		if !knownPlatforms[e.Platform] {
			res.addErr("companies[%d] (%s): unknown platform %q", i, e.Name, e.Platform)
		}
		if !knownStatuses[e.Status] {
			res.addErr("companies[%d] (%s): unknown status %q", i, e.Name, e.Status)
		}

		id := domain.CompanyID(e.Name)
		if prev, dup := seen[id]; dup {
			res.addWarn("companies[%d] (%s) collides with companies[%d]; the later entry wins.", i, e.Name, prev)
		}
		seen[id] = i
	}

	return out, res
}
