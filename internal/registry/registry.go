// Package registry decides, per company, whether ordinary ingestion
// applies. It combines a static per-company classification from config
// (known-blocked sites, manual-onboarding cases) with live platform
// detection, so the orchestrator never spends network or automation-runner
// cost on a company that cannot be crawled.
package registry

import (
	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/platform"
)

// FallbackBrowserAutomation tags companies crawled through the
// browser-automation runner instead of plain HTTP.
const FallbackBrowserAutomation = "browser-automation"

// Override is the static classification for one company, keyed by company
// id in config. Zero value means "no override, decide from the platform".
// Platform, when set, pins the tag instead of detecting it; Status, when
// set, pins the availability decision.
type Override struct {
	Platform domain.PlatformTag
	Status   domain.Availability
	Message  string
	Fallback string
}

type Registry struct {
	overrides map[string]Override
	// tags the connector registry actually serves; a detected platform
	// without a connector still means manual onboarding
	connected map[domain.PlatformTag]bool
}

func New(overrides map[string]Override, connectedTags []domain.PlatformTag) *Registry {
	r := &Registry{
		overrides: overrides,
		connected: make(map[domain.PlatformTag]bool, len(connectedTags)),
	}
	for _, tag := range connectedTags {
		r.connected[tag] = true
	}
	return r
}

// Status recomputes availability for one company. Derived, never cached:
// company config and the pattern tables are the only inputs.
func (r *Registry) Status(co domain.Company) domain.CompanyStatus {
	ov, hasOv := r.overrides[co.ID]

	tag := ov.Platform
	if tag == "" {
		tag = platform.Detect(co.CareersURL, "")
	}
	st := domain.CompanyStatus{
		CompanyID:   co.ID,
		CompanyName: co.Name,
		Platform:    tag,
	}

	if hasOv && ov.Status != "" {
		st.Status = ov.Status
		st.Message = ov.Message
		st.Fallback = ov.Fallback
		st.Available = ov.Status == domain.AvailabilityAvailable
		return st
	}

	switch {
	case tag == domain.PlatformUnknown:
		st.Status = domain.AvailabilityNeedsOnboarding
		st.Message = "platform not recognized; requires manual onboarding"
	case !r.connected[tag]:
		st.Status = domain.AvailabilityNeedsOnboarding
		st.Message = "platform " + string(tag) + " detected but no connector is onboarded"
	case tag == domain.PlatformWorkday:
		st.Status = domain.AvailabilityAvailable
		st.Available = true
		st.Message = "crawled via browser-automation fallback"
		st.Fallback = FallbackBrowserAutomation
	default:
		st.Status = domain.AvailabilityAvailable
		st.Available = true
		st.Message = "crawled via " + string(tag) + " connector"
	}
	return st
}

// Stats summarizes statuses for the status-reporting endpoint.
type Stats struct {
	Total           int `json:"total"`
	Available       int `json:"available"`
	Blocked         int `json:"blocked"`
	NeedsOnboarding int `json:"needsOnboarding"`
}

func (r *Registry) Statuses(companies []domain.Company) ([]domain.CompanyStatus, Stats) {
	out := make([]domain.CompanyStatus, 0, len(companies))
	var stats Stats
	for _, co := range companies {
		st := r.Status(co)
		out = append(out, st)
		stats.Total++
		switch st.Status {
		case domain.AvailabilityAvailable:
			stats.Available++
		case domain.AvailabilityBlocked:
			stats.Blocked++
		case domain.AvailabilityNeedsOnboarding:
			stats.NeedsOnboarding++
		}
	}
	return out, stats
}
