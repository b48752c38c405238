package domain

import (
	"strings"
	"time"
	"unicode"
)

// CountryUnknown is the sentinel primary country for postings whose
// location strings matched no pattern.
const CountryUnknown = "UNKNOWN"

// NormalizedJob is the canonical job schema every connector maps into.
// CanonicalID is the sole deduplication key: the same source+external id
// always yields the same CanonicalID, across crawls and restarts.
type NormalizedJob struct {
	CanonicalID    string     `json:"canonical_job_id"`
	Source         string     `json:"source"`
	ExternalID     string     `json:"external_id"`
	CompanyID      string     `json:"company_id"`
	CompanyName    string     `json:"company_name"`
	Title          string     `json:"title"`
	ApplyURL       string     `json:"apply_url"`
	SourceURL      string     `json:"source_url"`
	Locations      []string   `json:"locations"`
	Countries      []string   `json:"countries"`
	PrimaryCountry string     `json:"primary_country"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	Description    string     `json:"description_text,omitempty"`
}

// JobRecord is what the lifecycle store keeps: the canonical job plus
// sighting metadata. Records are never deleted by the pipeline, only
// flipped inactive once a full pass no longer observes them.
type JobRecord struct {
	NormalizedJob
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	IsActive   bool      `json:"is_active"`
}

// Company is immutable configuration for one employer.
type Company struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CareersURL string `json:"careers_url"`
	Country    string `json:"country,omitempty"` // default ISO code, optional
}

// CompanyID derives a stable id from a display name: lowercase,
// non-alphanumerics collapsed to single dashes.
func CompanyID(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
